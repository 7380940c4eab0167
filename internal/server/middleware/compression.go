package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/iudanet/docsync/internal/codec"
	"github.com/iudanet/docsync/pkg/api"
)

// EncodingZstd значение Content-Encoding для тел, сжатых кодеком
const EncodingZstd = "zstd"

// zstdResponseWriter сжимает тело ответа. Заголовки откладываются, пока
// не накопится minSize байт: короткие ответы и ответы без тела (204, 304)
// уходят как есть.
type zstdResponseWriter struct {
	http.ResponseWriter
	enc     io.WriteCloser
	buf     []byte
	minSize int
	status  int
	started bool
}

func bodyAllowed(code int) bool {
	return code >= http.StatusOK && code != http.StatusNoContent && code != http.StatusNotModified
}

func (zw *zstdResponseWriter) WriteHeader(code int) {
	if zw.status != 0 {
		return
	}
	zw.status = code
	if !bodyAllowed(code) {
		_ = zw.start(false)
	}
}

func (zw *zstdResponseWriter) Write(b []byte) (int, error) {
	if zw.status == 0 {
		zw.status = http.StatusOK
	}
	if zw.started {
		if zw.enc != nil {
			return zw.enc.Write(b)
		}
		return zw.ResponseWriter.Write(b)
	}

	zw.buf = append(zw.buf, b...)
	if len(zw.buf) < zw.minSize {
		return len(b), nil
	}
	if err := zw.start(true); err != nil {
		return 0, err
	}
	return len(b), nil
}

// start отправляет заголовки и накопленный буфер
func (zw *zstdResponseWriter) start(compress bool) error {
	zw.started = true
	buf := zw.buf
	zw.buf = nil

	if compress {
		zw.Header().Del("Content-Length")
		zw.Header().Set("Content-Encoding", EncodingZstd)
		zw.Header().Add("Vary", "Accept-Encoding")
	}
	zw.ResponseWriter.WriteHeader(zw.status)

	if !compress {
		if len(buf) == 0 {
			return nil
		}
		_, err := zw.ResponseWriter.Write(buf)
		return err
	}

	enc, err := codec.NewWriter(zw.ResponseWriter)
	if err != nil {
		return err
	}
	zw.enc = enc
	_, err = enc.Write(buf)
	return err
}

// close дописывает последний кадр или отдает короткий ответ без сжатия
func (zw *zstdResponseWriter) close() error {
	if !zw.started {
		if zw.status == 0 {
			return nil
		}
		return zw.start(false)
	}
	if zw.enc == nil {
		return nil
	}
	return zw.enc.Close()
}

// CompressionMiddleware распаковывает тела запросов с Content-Encoding: zstd
// и сжимает ответы длиннее minSize байт для клиентов, приславших
// Accept-Encoding: zstd. Websocket upgrade запросы пропускаются без изменений.
func CompressionMiddleware(logger *slog.Logger, minSize int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
				next.ServeHTTP(w, r)
				return
			}

			switch enc := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Encoding"))); enc {
			case "", "identity":
			case EncodingZstd:
				body, err := codec.NewReader(r.Body)
				if err != nil {
					logger.Warn("Failed to open zstd request body", "error", err)
					writeEncodingError(w, http.StatusBadRequest, "corrupt zstd body")
					return
				}
				defer body.Close()
				r.Body = body
				r.Header.Del("Content-Encoding")
				r.ContentLength = -1
			default:
				writeEncodingError(w, http.StatusUnsupportedMediaType, "unsupported content encoding "+enc)
				return
			}

			if !acceptsZstd(r) {
				next.ServeHTTP(w, r)
				return
			}

			zw := &zstdResponseWriter{ResponseWriter: w, minSize: minSize}
			next.ServeHTTP(zw, r)
			if err := zw.close(); err != nil {
				logger.Warn("Failed to flush zstd response", "error", err)
			}
		})
	}
}

// acceptsZstd разбирает Accept-Encoding; zstd с q=0 означает отказ
func acceptsZstd(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(name), EncodingZstd) {
			continue
		}
		return qualityOf(params) > 0
	}
	return false
}

// qualityOf возвращает q из параметров кодировки, по умолчанию 1
func qualityOf(params string) float64 {
	for _, p := range strings.Split(params, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "q") {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || q < 0 {
			return 0
		}
		return q
	}
	return 1
}

func writeEncodingError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
