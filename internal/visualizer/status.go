package visualizer

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatusHandler serves read-only views of the interpreter and the connections.
type StatusHandler struct {
	interp  *Interpreter
	manager *ConnectionManager
	started time.Time
}

func NewStatusHandler(interp *Interpreter, manager *ConnectionManager) *StatusHandler {
	return &StatusHandler{interp: interp, manager: manager, started: time.Now()}
}

func (h *StatusHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/variables", h.Variables)
	rg.GET("/variables/:name", h.Variable)
	rg.GET("/connections", h.Connections)
}

func (h *StatusHandler) Health(c *gin.Context) {
	executed, failed := h.interp.Counts()
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"connections":    h.manager.Count(),
		"lines_executed": executed,
		"lines_failed":   failed,
	})
}

func (h *StatusHandler) Variables(c *gin.Context) {
	c.JSON(http.StatusOK, h.interp.Variables())
}

func (h *StatusHandler) Variable(c *gin.Context) {
	name := c.Param("name")
	v, ok := h.interp.Lookup(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown variable: " + name})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "value": v})
}

func (h *StatusHandler) Connections(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.Snapshot())
}

// NewStatusRouter builds the gin engine for the status API.
func NewStatusRouter(h *StatusHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	h.RegisterRoutes(&r.RouterGroup)
	return r
}
