package signal

import "github.com/Sumansah07/Full-stack-Video-Calling-App/internal/core"

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
) {
	ctl.sendEvent(conn, core.OutPong, nil)
}
