package lark

import (
	"context"
	"encoding/json"
	"fmt"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/garyjia/newsroom-workflow/internal/application/port"
)

const receiveIDTypeChat = "chat_id"

// MessageCreator is the slice of the IM API the messenger uses
type MessageCreator interface {
	Create(ctx context.Context, req *larkim.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkim.CreateMessageResp, error)
}

// Messenger posts text messages to one Lark group chat and implements port.ChatNotifier
type Messenger struct {
	messages MessageCreator
	chatID   string
	logger   *zap.Logger
}

// NewMessenger creates a messenger that posts into chatID
func NewMessenger(client *SDKClient, chatID string, logger *zap.Logger) *Messenger {
	return newMessenger(client.Messages(), chatID, logger)
}

func newMessenger(messages MessageCreator, chatID string, logger *zap.Logger) *Messenger {
	return &Messenger{
		messages: messages,
		chatID:   chatID,
		logger:   logger,
	}
}

// Notify sends a plain text message to the configured chat
func (m *Messenger) Notify(ctx context.Context, text string) error {
	if m.chatID == "" {
		return fmt.Errorf("chat ID cannot be empty")
	}
	if text == "" {
		return fmt.Errorf("content cannot be empty")
	}

	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	_, err = m.send(ctx, "text", string(content))
	return err
}

func (m *Messenger) send(ctx context.Context, msgType, content string) (string, error) {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(receiveIDTypeChat).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(m.chatID).
			MsgType(msgType).
			Content(content).
			Build()).
		Build()

	resp, err := m.messages.Create(ctx, req)
	if err != nil {
		m.logger.Error("Failed to send message",
			zap.String("chat_id", m.chatID),
			zap.Error(err))
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		m.logger.Error("API returned failure",
			zap.String("chat_id", m.chatID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return "", fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}

	m.logger.Debug("Message sent",
		zap.String("message_id", messageID),
		zap.String("chat_id", m.chatID))

	return messageID, nil
}

// Verify interface compliance
var _ port.ChatNotifier = (*Messenger)(nil)
