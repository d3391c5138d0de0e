/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2026-10-19
 * @Description: IANA TLD列表
 */
package whois

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
)

const DefaultTLDListURL = "https://data.iana.org/TLD/tlds-alpha-by-domain.txt"

// AllTLDs 下载IANA维护的TLD列表，每行一个，# 开头为注释
func (c *Client) AllTLDs(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tldListURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "whoisd/1.0")

	hc := c.httpClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch TLD list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch TLD list: unexpected status %d", resp.StatusCode)
	}

	var tlds []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tlds = append(tlds, strings.ToLower(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read TLD list: %w", err)
	}
	return tlds, nil
}
