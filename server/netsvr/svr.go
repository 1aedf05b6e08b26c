package netsvr

import (
	"net/http"

	"github.com/zintix-labs/huaylab/server/app"
)

// NetSvr 路由 + 啟停。只有 server 組裝層拿得到，交給 app.App 管生命週期。
type NetSvr interface {
	NetRouter
	app.Component
}

// NetRouter 只有路由能力，handler 註冊層看不到 Run/Shutdown。
//
// 面板相關路由一律掛在 Session 底下：
//
//	r.Group("/sessions", func(ss NetRouter) {
//		ss.Post("/", open)
//		ss.Session(func(one NetRouter) {
//			one.Get("/", view)
//			one.Post("/keys", keys)
//		})
//	})
//
// Session 會先擋掉格式不對的面板 ID（直接 404），handler 以 SessionID(r) 取值。
type NetRouter interface {
	Use(middleware func(http.Handler) http.Handler)

	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)
	Delete(path string, h http.HandlerFunc)

	Group(path string, fn func(NetRouter))
	Session(fn func(NetRouter))
}
