package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"

	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/app/jobs"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/app/orch"
	"github.com/Sumansah07/Full-stack-Video-Calling-App/internal/config"
)

type handlers struct {
	orch       *orch.Orchestrator
	queue      *jobs.Queue
	iceServers []config.ICEServer
}

func (h *handlers) health(c *gin.Context) {
	resp := gin.H{
		"status": "ok",
		"online": len(h.orch.Registry.OnlineUsers()),
		"rooms":  h.orch.Rooms.Count(),
	}
	if h.queue != nil {
		resp["jobs"] = h.queue.Stats()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) onlineUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": h.orch.Registry.OnlineUsers()})
}

// iceServersList serves RTCPeerConnection configuration for browsers.
func (h *handlers) iceServersList(c *gin.Context) {
	out := make([]webrtc.ICEServer, 0, len(h.iceServers))
	for _, s := range h.iceServers {
		srv := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
		if s.Credential != "" {
			srv.Credential = s.Credential
		}
		out = append(out, srv)
	}
	c.JSON(http.StatusOK, gin.H{"iceServers": out})
}
