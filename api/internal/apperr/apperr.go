// Package apperr — единая таксономия ошибок: код, техническое сообщение,
// сообщение для пользователя, признак повторяемости и HTTP-статус.
package apperr

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"
)

type Code string

const (
	ImageTooLarge         Code = "IMAGE_TOO_LARGE"
	ImageInvalidFormat    Code = "IMAGE_INVALID_FORMAT"
	ImageProcessingFailed Code = "IMAGE_PROCESSING_FAILED"

	APIKeyMissing   Code = "API_KEY_MISSING"
	APIRateLimit    Code = "API_RATE_LIMIT"
	APIServerError  Code = "API_SERVER_ERROR"
	APINetworkError Code = "API_NETWORK_ERROR"

	DataValidation Code = "DATA_VALIDATION_ERROR"
	DataNotFound   Code = "DATA_NOT_FOUND"

	Unknown      Code = "UNKNOWN_ERROR"
	NetworkError Code = "NETWORK_ERROR"
)

var userMessages = map[Code]string{
	ImageTooLarge:         "ファイルサイズが大きすぎます。10MB以下の画像を選択してください。",
	ImageInvalidFormat:    "画像ファイルを選択してください。",
	ImageProcessingFailed: "画像の処理中にエラーが発生しました。もう一度お試しください。",

	APIKeyMissing:   "APIキーが設定されていません。管理者にお問い合わせください。",
	APIRateLimit:    "APIの利用制限に達しました。しばらく待ってからもう一度お試しください。",
	APIServerError:  "サーバーエラーが発生しました。しばらく待ってからもう一度お試しください。",
	APINetworkError: "ネットワークエラーが発生しました。インターネット接続を確認してください。",

	DataValidation: "入力データに問題があります。内容を確認してください。",
	DataNotFound:   "データが見つかりません。",

	Unknown:      "予期しないエラーが発生しました。",
	NetworkError: "ネットワークエラーが発生しました。インターネット接続を確認してください。",
}

var retryable = map[Code]bool{
	ImageProcessingFailed: true,
	APIRateLimit:          true,
	APIServerError:        true,
	NetworkError:          true,
}

// UserMessage возвращает текст для конечного пользователя по коду.
func UserMessage(c Code) string {
	if m, ok := userMessages[c]; ok {
		return m
	}
	return userMessages[Unknown]
}

type Error struct {
	Code        Code
	Message     string
	UserMessage string
	Details     map[string]any
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return string(e.Code) + ": " + e.Err.Error()
	}
	if e.Err != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Retryable() bool { return retryable[e.Code] }

// WithUserMessage перекрывает стандартный текст (например, точной причиной из валидатора).
func (e *Error) WithUserMessage(msg string) *Error {
	if strings.TrimSpace(msg) != "" {
		e.UserMessage = msg
	}
	return e
}

func (e *Error) WithDetail(k string, v any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[k] = v
	return e
}

func (e *Error) HTTPStatus() int {
	switch e.Code {
	case ImageTooLarge:
		return http.StatusRequestEntityTooLarge
	case ImageInvalidFormat:
		return http.StatusUnsupportedMediaType
	case ImageProcessingFailed:
		return http.StatusUnprocessableEntity
	case DataValidation:
		return http.StatusBadRequest
	case DataNotFound:
		return http.StatusNotFound
	case APIRateLimit:
		return http.StatusTooManyRequests
	case APIKeyMissing:
		return http.StatusServiceUnavailable
	case APIServerError, APINetworkError, NetworkError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, UserMessage: UserMessage(code)}
}

func Wrap(code Code, err error) *Error {
	return &Error{Code: code, UserMessage: UserMessage(code), Err: err}
}

// From приводит произвольную ошибку к *Error.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(NetworkError, err)
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return Wrap(NetworkError, err)
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "fetch") || strings.Contains(s, "network") {
		return Wrap(NetworkError, err)
	}
	return Wrap(Unknown, err)
}

// View — JSON-представление ошибки для клиентов.
type View struct {
	Code        Code           `json:"code"`
	Message     string         `json:"message"`
	UserMessage string         `json:"userMessage"`
	Details     map[string]any `json:"details,omitempty"`
	Timestamp   string         `json:"timestamp"`
	CanRetry    bool           `json:"canRetry"`
}

func (e *Error) View() View {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return View{
		Code:        e.Code,
		Message:     msg,
		UserMessage: e.UserMessage,
		Details:     e.Details,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		CanRetry:    e.Retryable(),
	}
}
