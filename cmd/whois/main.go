/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2026-10-19
 * @Description: WHOIS命令行工具，输出JSON
 */
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"whoisd/config"
	"whoisd/pkg/logger"
	"whoisd/pkg/whois"
	"whoisd/types"

	"github.com/spf13/cobra"
)

type cliFlags struct {
	host          string
	port          int
	timeoutMS     int
	follow        int
	raw           bool
	ignorePrivacy bool
	proxy         string
	proxyUser     string
	proxyPassword string
	dnsServer     string
	verbose       bool
}

func (f *cliFlags) options() (types.Options, error) {
	opts := types.Options{
		Host:          strings.ToLower(strings.TrimSpace(f.host)),
		Port:          f.port,
		Timeout:       time.Duration(f.timeoutMS) * time.Millisecond,
		Follow:        f.follow,
		Raw:           f.raw,
		IgnorePrivacy: types.Bool(f.ignorePrivacy),
	}
	if f.proxy != "" {
		p, err := config.ParseProxy(f.proxy)
		if err != nil {
			return opts, err
		}
		p.Username, p.Password = f.proxyUser, f.proxyPassword
		opts.Proxy = p
	}
	return opts.Normalize(), nil
}

// newRootCmd newClient 在命令执行时调用，测试中可替换
func newRootCmd(newClient func(dnsServer string) *whois.Client, out io.Writer) *cobra.Command {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:           "whois <query>",
		Short:         "Query WHOIS for a domain, TLD, IP address or ASN",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			// 未初始化时日志为空操作，stdout只输出结果
			if flags.verbose {
				return logger.Init("dev", "")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			res, err := newClient(flags.dnsServer).Lookup(cmd.Context(), strings.TrimSpace(args[0]), opts)
			if err != nil {
				return err
			}
			return writeJSON(out, res)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.host, "host", "", "query this WHOIS server instead of resolving one")
	pf.IntVar(&flags.port, "port", types.DefaultPort, "WHOIS server port")
	pf.IntVar(&flags.timeoutMS, "timeout", int(types.DefaultTimeout/time.Millisecond), "per-server timeout in milliseconds")
	pf.IntVar(&flags.follow, "follow", types.DefaultFollow, "maximum number of servers to query")
	pf.BoolVar(&flags.raw, "raw", false, "include the raw response text")
	pf.BoolVar(&flags.ignorePrivacy, "ignore-privacy", true, "blank the values of registrant, admin, tech and billing contact fields (keys are kept)")
	pf.StringVar(&flags.proxy, "proxy", "", "SOCKS5 proxy, host or host:port")
	pf.StringVar(&flags.proxyUser, "proxy-user", "", "SOCKS5 proxy username")
	pf.StringVar(&flags.proxyPassword, "proxy-password", "", "SOCKS5 proxy password")
	pf.StringVar(&flags.dnsServer, "dns", "", "DNS resolver for WHOIS server discovery (default from resolv.conf)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log each hop (interleaved with the output)")

	root.AddCommand(
		&cobra.Command{
			Use:   "tlds",
			Short: "List every TLD published by IANA",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				tlds, err := newClient(flags.dnsServer).AllTLDs(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(out, tlds)
			},
		},
		&cobra.Command{
			Use:   "raw <host> <query>",
			Short: "Send a query to a WHOIS server and print the response as is",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				opts, err := flags.options()
				if err != nil {
					return err
				}
				host, port := args[0], opts.Port
				text, err := newClient(flags.dnsServer).Query(cmd.Context(), strings.ToLower(host), port, args[1], opts.Timeout, opts.Proxy)
				if err != nil {
					return err
				}
				_, err = io.WriteString(out, text)
				return err
			},
		},
	)
	return root
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func defaultClient(dnsServer string) *whois.Client {
	return whois.NewClient().SetDiscoverer(whois.NewDNSDiscoverer(dnsServer, 5*time.Second))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := newRootCmd(defaultClient, os.Stdout).ExecuteContext(ctx)
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "whois:", err)
		os.Exit(1)
	}
}
