package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/zintix-labs/huaylab/errs"
	"github.com/zintix-labs/huaylab/server/httperr"
)

// Recover 攔截 handler panic：記錄 stack 並回 500 JSON。
// http.ErrAbortHandler 照原樣往上拋（net/http 用它中止連線）。
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				log.LogAttrs(r.Context(), slog.LevelError, "http.panic",
					slog.Any("panic", rvr),
					slog.String("req_id", GetReqId(r)),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)
				if r.Header.Get("Connection") != "Upgrade" {
					httperr.Errs(w, errs.Fatalf("panic: %v", rvr))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
