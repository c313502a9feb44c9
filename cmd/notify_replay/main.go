package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"
)

var httpClient *http.Client

func init() {
	// 优化 HTTP Client 配置
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 500
	t.MaxIdleConnsPerHost = 500
	t.MaxConnsPerHost = 500
	httpClient = &http.Client{
		Transport: t,
		Timeout:   10 * time.Second,
	}
}

type ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "Base URL of the deployment")
		orderID = flag.String("order", "", "Order ID (cpm_trans_id) to replay")
		status  = flag.String("status", "ACCEPTED", "cpm_trans_status to send")
		total   = flag.Int("n", 50, "Number of concurrent duplicate notifications")
	)
	flag.Parse()

	if *orderID == "" {
		fmt.Println("用法: notify_replay -order <orderId> [-status ACCEPTED] [-n 50] [-url http://localhost:8080]")
		os.Exit(2)
	}

	payload, _ := json.Marshal(map[string]string{
		"cpm_trans_id":     *orderID,
		"cpm_trans_status": *status,
	})
	endpoint := *baseURL + "/payment/notify/cinetpay"

	fmt.Printf("开始重放：%d 条并发通知 -> %s (order=%s status=%s)\n", *total, endpoint, *orderID, *status)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = make(map[string]int)
	)

	start := time.Now()
	for i := 0; i < *total; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := send(endpoint, payload)
			mu.Lock()
			outcomes[key]++
			mu.Unlock()
		}()
	}
	wg.Wait()
	duration := time.Since(start)

	keys := make([]string, 0, len(outcomes))
	for k := range outcomes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println("--------------------------------------------------")
	fmt.Printf("重放结束，耗时: %v\n", duration)
	for _, k := range keys {
		fmt.Printf("%-40s %d\n", k, outcomes[k])
	}
	fmt.Println("--------------------------------------------------")

	// 订单原本为 pending 时应恰好一条生效
	applied := outcomes["200 Order updated"]
	if applied > 1 {
		fmt.Printf("异常：%d 条通知都修改了订单\n", applied)
		os.Exit(1)
	}
	fmt.Printf("生效: %d (预期: 订单为 pending 时 1，否则 0)\n", applied)
}

// send 返回 "状态码 应答文案" 作为统计键
func send(endpoint string, payload []byte) string {
	resp, err := httpClient.Post(endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return "transport error"
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("%d unreadable body", resp.StatusCode)
	}

	var a ack
	if err := json.Unmarshal(body, &a); err != nil {
		return fmt.Sprintf("%d invalid json", resp.StatusCode)
	}
	if a.Message != "" {
		return fmt.Sprintf("%d %s", resp.StatusCode, a.Message)
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, a.Error)
}
