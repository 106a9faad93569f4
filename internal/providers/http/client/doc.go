// Package client provides the outbound HTTP client shared by the backend
// locator, the scoring client and the product scraper.
//
// Built on go-resty/resty with a pooled go-retryablehttp transport:
//   - bounded per-request timeout (no request may hang indefinitely)
//   - no automatic retries; failures surface to the caller once
//   - optional requests-per-second limit via golang.org/x/time/rate
//   - JSON bodies encoded and decoded with bytedance/sonic
//
// Example Usage:
//
//	c := client.NewClient(client.Options{Timeout: 5 * time.Second})
//	req, err := c.Request(ctx)
//	resp, err := req.SetBody(payload).Post(url)
package client
