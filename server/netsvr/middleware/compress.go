package middleware

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// CompressConfig 壓縮設定。
//   - MinSize：回應小於此大小時原樣送出（按鍵回應多半只有幾百 byte）。
//   - Skip：回傳 true 的請求完全不壓縮。
type CompressConfig struct {
	GzipLevel int
	ZstdLevel zstd.EncoderLevel
	MinSize   int
	Skip      func(*http.Request) bool
}

var DefaultCompressConfig = CompressConfig{
	GzipLevel: gzip.BestSpeed,
	ZstdLevel: zstd.SpeedFastest,
	MinSize:   1024,
	Skip:      SkipKeystrokes,
}

// SkipKeystrokes 面板逐鍵呼叫的路由（keys / press）回應固定很小，不走壓縮。
func SkipKeystrokes(r *http.Request) bool {
	p := strings.TrimSuffix(r.URL.Path, "/")
	if !strings.HasPrefix(p, "/v1/sessions/") {
		return false
	}
	return strings.HasSuffix(p, "/keys") || strings.HasSuffix(p, "/press")
}

// Compression 以 DefaultCompressConfig 壓縮回應。
func Compression(next http.Handler) http.Handler {
	return defaultCompressor().wrap(next)
}

var defaultCompressor = sync.OnceValue(func() *compressor {
	return newCompressor(DefaultCompressConfig)
})

// NewCompression 依 cfg 建立壓縮 middleware；每個設定各自一組 encoder pool。
func NewCompression(cfg CompressConfig) func(http.Handler) http.Handler {
	return newCompressor(cfg).wrap
}

type compressor struct {
	cfg  CompressConfig
	gzip sync.Pool
	zstd sync.Pool
}

func newCompressor(cfg CompressConfig) *compressor {
	if cfg.GzipLevel == 0 {
		cfg.GzipLevel = gzip.DefaultCompression
	}
	if cfg.ZstdLevel == 0 {
		cfg.ZstdLevel = zstd.SpeedDefault
	}
	c := &compressor{cfg: cfg}
	c.gzip.New = func() any {
		gw, err := gzip.NewWriterLevel(io.Discard, cfg.GzipLevel)
		if err != nil {
			gw = gzip.NewWriter(io.Discard)
		}
		return gw
	}
	c.zstd.New = func() any {
		zw, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(cfg.ZstdLevel),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			panic(err)
		}
		return zw
	}
	return c
}

// encoder 取出對應編碼的 writer，release 時歸還 pool。
func (c *compressor) encoder(enc string, w io.Writer) (io.WriteCloser, func()) {
	switch enc {
	case "zstd":
		zw := c.zstd.Get().(*zstd.Encoder)
		zw.Reset(w)
		return zw, func() {
			zw.Reset(io.Discard)
			c.zstd.Put(zw)
		}
	default:
		gw := c.gzip.Get().(*gzip.Writer)
		gw.Reset(w)
		return gw, func() {
			gw.Reset(io.Discard)
			c.gzip.Put(gw)
		}
	}
}

func (c *compressor) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead || isUpgrade(r) || (c.cfg.Skip != nil && c.cfg.Skip(r)) {
			next.ServeHTTP(w, r)
			return
		}
		enc := pickEncoding(r.Header.Get("Accept-Encoding"))
		if enc == "" {
			next.ServeHTTP(w, r)
			return
		}
		lw := &lazyWriter{ResponseWriter: w, c: c, enc: enc}
		defer lw.finish()
		next.ServeHTTP(lw, r)
	})
}

func isUpgrade(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade") ||
		r.Header.Get("Upgrade") != ""
}

// pickEncoding 偏好 zstd，其次 gzip；q=0 視為拒絕。
func pickEncoding(accept string) string {
	var zstdOK, gzipOK bool
	for _, part := range strings.Split(accept, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if v, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if q, err := strconv.ParseFloat(v, 64); err == nil && q == 0 {
				continue
			}
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "zstd":
			zstdOK = true
		case "gzip":
			gzipOK = true
		}
	}
	switch {
	case zstdOK:
		return "zstd"
	case gzipOK:
		return "gzip"
	}
	return ""
}

func isNoBodyStatus(code int) bool {
	return (code >= 100 && code < 200) || code == http.StatusNoContent || code == http.StatusNotModified
}

// lazyWriter 先把 body 暫存到 MinSize，夠大才決定壓縮並送出 header。
// 沒達到門檻就在 finish 時原樣送出。
type lazyWriter struct {
	http.ResponseWriter
	c       *compressor
	enc     string
	status  int
	buf     []byte
	out     io.WriteCloser
	release func()
	plain   bool // header 已原樣送出（無 body 狀態碼或上游已編碼）
}

func (lw *lazyWriter) WriteHeader(code int) {
	if lw.status != 0 {
		return
	}
	lw.status = code
	if isNoBodyStatus(code) || lw.Header().Get("Content-Encoding") != "" {
		lw.plain = true
		lw.ResponseWriter.WriteHeader(code)
	}
}

func (lw *lazyWriter) Write(b []byte) (int, error) {
	if lw.status == 0 {
		lw.WriteHeader(http.StatusOK)
	}
	switch {
	case lw.plain:
		return lw.ResponseWriter.Write(b)
	case lw.out != nil:
		return lw.out.Write(b)
	}
	lw.buf = append(lw.buf, b...)
	if len(lw.buf) >= lw.c.cfg.MinSize {
		if err := lw.start(); err != nil {
			return 0, err
		}
	}
	return len(b), nil
}

// start 切到壓縮模式：補 header、送出狀態碼、把暫存寫進 encoder。
func (lw *lazyWriter) start() error {
	h := lw.Header()
	if h.Get("Content-Type") == "" && len(lw.buf) > 0 {
		h.Set("Content-Type", http.DetectContentType(lw.buf))
	}
	h.Del("Content-Length")
	h.Set("Content-Encoding", lw.enc)
	h.Add("Vary", "Accept-Encoding")
	lw.ResponseWriter.WriteHeader(lw.status)

	lw.out, lw.release = lw.c.encoder(lw.enc, lw.ResponseWriter)
	buf := lw.buf
	lw.buf = nil
	if len(buf) == 0 {
		return nil
	}
	_, err := lw.out.Write(buf)
	return err
}

func (lw *lazyWriter) finish() {
	switch {
	case lw.out != nil:
		_ = lw.out.Close()
		lw.release()
	case lw.plain, lw.status == 0:
		// 已原樣送出，或 handler 什麼都沒寫
	default:
		lw.Header().Add("Vary", "Accept-Encoding")
		lw.ResponseWriter.WriteHeader(lw.status)
		_, _ = lw.ResponseWriter.Write(lw.buf)
	}
}

func (lw *lazyWriter) Flush() {
	if !lw.plain && lw.out == nil {
		if lw.status == 0 {
			lw.status = http.StatusOK
		}
		_ = lw.start()
	}
	if f, ok := lw.out.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
	if f, ok := lw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (lw *lazyWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := lw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying response writer does not support Hijacker")
	}
	return hj.Hijack()
}
