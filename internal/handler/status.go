package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/filmsync/internal/service"
	"github.com/user/filmsync/internal/utils"
)

// Handler 守护模式下的状态接口
type Handler struct {
	mu      sync.RWMutex
	runs    int
	last    *service.Stats
	lastErr string
}

// NewHandler 创建状态处理器
func NewHandler() *Handler {
	return &Handler{}
}

// Record 记录一次同步运行的结果
func (h *Handler) Record(stats *service.Stats, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.runs++
	h.last = stats
	if err != nil {
		h.lastErr = err.Error()
	} else {
		h.lastErr = ""
	}
}

// Health 健康检查
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now()})
}

// Stats 返回最近一次同步的结果
func (h *Handler) Stats(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.last == nil {
		utils.Success(c, gin.H{"runs": h.runs, "message": "尚未完成任何同步"})
		return
	}
	utils.Success(c, gin.H{
		"runs":       h.runs,
		"last_run":   h.last,
		"last_error": h.lastErr,
	})
}

// RegisterRoutes 注册路由
func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/health", h.Health)
	r.GET("/stats", h.Stats)
}
