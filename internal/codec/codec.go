// Package codec реализует обратимое сжатие целых payload (снимков реплик,
// пакетов изменений) перед передачей по сети или записью на диск.
// О семантике документа пакет ничего не знает.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ErrCorrupt payload не удается распаковать
var ErrCorrupt = errors.New("corrupt compressed payload")

// maxDecodedSize ограничивает память одной распаковки
const maxDecodedSize = 256 << 20

// Error описывает неудачную операцию кодека. Всегда оборачивает ErrCorrupt
// или ошибку JSON, поэтому работают errors.Is / errors.As.
type Error struct {
	Err error
	Op  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("codec %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	initOnce sync.Once
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
	initErr  error
)

// EncodeAll и DecodeAll безопасны для конкурентного вызова, хватает одной общей пары
func coders() (*zstd.Encoder, *zstd.Decoder, error) {
	initOnce.Do(func() {
		encoder, initErr = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithZeroFrames(true),
		)
		if initErr != nil {
			return
		}
		decoder, initErr = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(0),
			zstd.WithDecoderMaxMemory(maxDecodedSize),
		)
	})
	return encoder, decoder, initErr
}

// Compress возвращает сжатые data. Пустой вход дает валидный (непустой)
// фрейм, который распаковывается в пустой вывод.
func Compress(data []byte) ([]byte, error) {
	enc, _, err := coders()
	if err != nil {
		return nil, &Error{Op: "compress", Err: err}
	}
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2+16)), nil
}

// Decompress обратна Compress. Обрезанный, пустой или чужой вход дает
// *Error с ErrCorrupt.
func Decompress(data []byte) ([]byte, error) {
	_, dec, err := coders()
	if err != nil {
		return nil, &Error{Op: "decompress", Err: err}
	}
	if len(data) == 0 {
		return nil, &Error{Op: "decompress", Err: ErrCorrupt}
	}
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, &Error{Op: "decompress", Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

// CompressJSON сериализует v в UTF-8 JSON и сжимает результат
func CompressJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, &Error{Op: "compress json", Err: err}
	}
	return Compress(raw)
}

// DecompressJSON распаковывает data и декодирует JSON документ в v
func DecompressJSON(data []byte, v any) error {
	raw, err := Decompress(data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &Error{Op: "decompress json", Err: err}
	}
	return nil
}

// NewReader оборачивает r потоковым распаковщиком. Используется для тел
// запросов с Content-Encoding: zstd.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderMaxMemory(maxDecodedSize))
	if err != nil {
		return nil, &Error{Op: "reader", Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
	}
	return dec.IOReadCloser(), nil
}

// NewWriter оборачивает w потоковым компрессором. Вызывающий обязан Close,
// чтобы дописать последний фрейм.
func NewWriter(w io.Writer) (io.WriteCloser, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, &Error{Op: "writer", Err: err}
	}
	return enc, nil
}
