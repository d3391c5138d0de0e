/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2025-12-30
 * @Description: 统一日志系统 - 基于uber-go/zap，可选lumberjack文件切割
 */

package logger

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// base 是全局zap logger实例
	base *zap.Logger
	// sugar 是全局SugaredLogger实例，支持printf风格
	sugar *zap.SugaredLogger
	// rotator 日志文件切割器，未配置日志文件时为nil
	rotator *lumberjack.Logger
)

// ContextKey 用于从context中获取request ID
type ContextKey string

const RequestIDKey ContextKey = "request_id"

// Init 初始化全局logger
// env: "dev" 使用彩色控制台输出，其他值使用JSON格式
// logFile 非空时同时写入按大小切割的日志文件
func Init(env, logFile string) error {
	encCfg := zap.NewProductionEncoderConfig()
	level := zap.InfoLevel
	var consoleEnc zapcore.Encoder

	dev := env == "dev" || env == "development"
	if dev {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		level = zap.DebugLevel
	}
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.CallerKey = "caller"

	if dev {
		consoleEnc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		consoleEnc = zapcore.NewJSONEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stdout), level),
	}

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return err
		}
		rotator = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // MB
			MaxBackups: 30,
			MaxAge:     90, // 天
			Compress:   true,
			LocalTime:  true,
		}
		fileCfg := encCfg
		fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(rotator), level))
	}

	l := zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	base = l
	sugar = l.Sugar()

	// 重定向标准库log到zap
	stdLog := zap.NewStdLog(l)
	log.SetOutput(stdLog.Writer())
	log.SetFlags(0)

	return nil
}

// Module 创建带模块名称的logger
// 用法: logger.Module("Whois").Debugf("querying %s", host)
func Module(name string) *zap.SugaredLogger {
	if sugar == nil {
		return zap.NewNop().Sugar().Named(name)
	}
	return sugar.Named(name)
}

// Base 返回原始zap.Logger
func Base() *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	return base
}

// WithRequest 从Gin context中获取request ID并创建带request_id字段的logger
func WithRequest(c *gin.Context, moduleName string) *zap.SugaredLogger {
	l := Module(moduleName)

	if requestID, exists := c.Get("request_id"); exists {
		l = l.With("request_id", requestID)
	}

	return l.With("client_ip", c.ClientIP())
}

// FromContext 从标准context.Context中获取request ID
func FromContext(ctx context.Context, moduleName string) *zap.SugaredLogger {
	l := Module(moduleName)

	if ctx == nil {
		return l
	}
	if requestID := ctx.Value(RequestIDKey); requestID != nil {
		l = l.With("request_id", requestID)
	}

	return l
}

// Sync 刷新日志缓冲区，程序退出前应调用
func Sync() {
	if base != nil {
		_ = base.Sync()
	}
	if rotator != nil {
		_ = rotator.Close()
	}
}

// DeriveEnvironment 根据环境变量推导运行环境
func DeriveEnvironment() string {
	if ginMode := os.Getenv("GIN_MODE"); ginMode != "" {
		if ginMode == "release" {
			return "production"
		}
		return "dev"
	}

	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}

	return "dev"
}
