package client

import (
	"log"
	"time"

	"github.com/alvesvaren/bombfest/internal/logger"
)

// StartHeartbeat 启动心跳检测
func (c *Client) StartHeartbeat() {
	done := c.done
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if c.IsConnected() {
					_ = c.Ping()
				}
			case <-done:
				return
			}
		}
	}()
}

// tryReconnect 断线后重连同一房间
// 身份由令牌承载，重连即换绑，无需额外握手
func (c *Client) tryReconnect() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			log.Printf("[PANIC] tryReconnect panic recovered: %v", r)
			c.reconnecting.Store(false)
		}
	}()

	if !c.reconnecting.CompareAndSwap(false, true) {
		return
	}

	// 指数退避重连策略
	backoff := reconnectInterval

	for c.reconnectCount < maxReconnectAttempts {
		c.reconnectCount++
		// 通过回调通知 UI 正在重连
		if c.OnReconnecting != nil {
			c.OnReconnecting(c.reconnectCount, maxReconnectAttempts)
		}

		time.Sleep(backoff)

		// 计算下一次退避时间 (最大 30 秒)
		backoff *= 2
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}

		if err := c.ConnectRoom(c.RoomID); err != nil {
			log.Printf("重连失败 (%d/%d): %v", c.reconnectCount, maxReconnectAttempts, err)
			continue
		}

		log.Printf("✅ 重连成功")
		c.reconnecting.Store(false)
		c.reconnectCount = 0
		if c.OnReconnect != nil {
			c.OnReconnect()
		}
		return
	}

	// 重连失败
	log.Printf("❌ 重连失败，已达最大尝试次数")
	c.reconnecting.Store(false)
	c.Close()
	if c.OnClose != nil {
		c.OnClose()
	}
}

// GetLatency 获取当前延迟（毫秒）
func (c *Client) GetLatency() int64 {
	return c.Latency
}

// IsReconnecting 是否正在重连
func (c *Client) IsReconnecting() bool {
	return c.reconnecting.Load()
}
