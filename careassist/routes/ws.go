// careassist/routes/ws.go
package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"careassist/careassist/controllers"
	"careassist/careassist/utils/errs"
	"careassist/careassist/utils/logging"
	"careassist/careassist/utils/types"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// ChatSocket handles GET /ws. Every text frame {session_id?, content} runs one
// send; the answer is one frame holding the updated session, or {"error": ...}.
// Cross-origin browser handshakes are refused unless the origin host matches
// one of originPatterns.
func ChatSocket(ctrl *controllers.ChatController, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			logging.AppLogger.Warn("websocket handshake rejected",
				zap.String("origin", r.Header.Get("Origin")),
				zap.Error(err),
			)
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := r.Context()
		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				if websocket.CloseStatus(err) != websocket.StatusNormalClosure && !errors.Is(err, ctx.Err()) {
					logging.AppLogger.Info("websocket closed", zap.Error(err))
				}
				return
			}
			if typ != websocket.MessageText {
				conn.Close(websocket.StatusUnsupportedData, "unsupported data")
				return
			}

			var req types.SendRequest
			var reply any
			if err := json.Unmarshal(data, &req); err != nil {
				reply = types.ErrorResponse{Error: "invalid json"}
			} else if res, err := ctrl.Send(ctx, req.SessionID, req.Content); err != nil {
				reply = types.ErrorResponse{Error: errs.MessageOf(err)}
			} else {
				reply = res
			}

			out, err := json.Marshal(reply)
			if err != nil {
				return
			}
			if err := conn.Write(ctx, websocket.MessageText, out); err != nil {
				return
			}
		}
	}
}
