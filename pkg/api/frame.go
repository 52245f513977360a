// Package api содержит кадры протокола синхронизации, общие для
// клиента и relay-сервера. Один кадр — одно websocket-сообщение, JSON.
//
// Relay обращается только с полями конверта (тип, идентификаторы,
// номера); Payload для него непрозрачные байты.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrProtocol нарушение протокола обмена: некорректный или неожиданный кадр.
// Прерывает только текущий обмен, локальное состояние сторон не затрагивается.
var ErrProtocol = errors.New("sync protocol violation")

// FrameType тип кадра протокола
type FrameType string

// Типы кадров обмена клиент ↔ relay
const (
	// FrameJoin клиент объявляет документ, свою сводку и последний виденный seq
	FrameJoin FrameType = "join"

	// FramePeer ответ relay на join: максимальный сохраненный seq
	FramePeer FrameType = "peer"

	// FrameDelta пакет операций; Seq заполнен, когда кадр идет от relay
	FrameDelta FrameType = "delta"

	// FrameAck подтверждение получения дельты
	FrameAck FrameType = "ack"

	// FrameError протокольная ошибка, после нее соединение закрывается
	FrameError FrameType = "error"
)

// Frame кадр протокола синхронизации.
type Frame struct {
	Summary  map[string]int64 `json:"summary,omitempty"`
	Type     FrameType        `json:"type"`
	DocID    string           `json:"doc_id,omitempty"`
	SenderID string           `json:"sender_id,omitempty"`
	Message  string           `json:"message,omitempty"`
	Payload  []byte           `json:"payload,omitempty"`
	Since    int64            `json:"since,omitempty"`
	Seq      int64            `json:"seq,omitempty"`
}

// ParseFrame разбирает и проверяет кадр. Любое отклонение от протокола
// возвращается как ErrProtocol, чтобы вызывающий прервал обмен.
func ParseFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: malformed frame: %w", ErrProtocol, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate проверяет обязательные поля кадра по его типу.
func (f *Frame) Validate() error {
	switch f.Type {
	case FrameJoin:
		if f.DocID == "" || f.SenderID == "" {
			return fmt.Errorf("%w: join frame without doc or sender id", ErrProtocol)
		}
	case FramePeer:
		// Seq может быть нулевым: у relay еще нет операций
	case FrameDelta:
		if len(f.Payload) == 0 {
			return fmt.Errorf("%w: delta frame without payload", ErrProtocol)
		}
	case FrameAck:
		if f.Seq <= 0 {
			return fmt.Errorf("%w: ack frame without sequence", ErrProtocol)
		}
	case FrameError:
		// Message желателен, но его отсутствие не повод ронять разбор
	default:
		return fmt.Errorf("%w: unknown frame type %q", ErrProtocol, f.Type)
	}
	return nil
}

// Encode сериализует кадр для отправки.
func (f *Frame) Encode() ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return data, nil
}
