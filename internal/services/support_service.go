// Package services – SupportService
//
// This file implements the SupportService, which accepts user-to-admin help
// requests. Moderation of tickets lives in AdminService.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/workscout/go-marketplace-backend/internal/domain"
	"github.com/workscout/go-marketplace-backend/internal/repo"
)

// SupportService provides support ticket submission.
type SupportService struct {
	DB *gorm.DB
}

// NewSupportService constructs a SupportService.
func NewSupportService(db *gorm.DB) *SupportService {
	return &SupportService{DB: db}
}

// CreateTicketInput is the payload for opening a help request.
type CreateTicketInput struct {
	Topic   string
	Message string
}

// Create opens a new support ticket for the user.
func (s *SupportService) Create(ctx context.Context, user *domain.User, in CreateTicketInput) (*domain.SupportTicket, error) {
	topic := strings.TrimSpace(in.Topic)
	msg := strings.TrimSpace(in.Message)
	if utf8.RuneCountInString(topic) < 3 {
		return nil, invalidf("topic must be at least 3 characters")
	}
	if utf8.RuneCountInString(msg) < 5 {
		return nil, invalidf("message must be at least 5 characters")
	}

	t := &domain.SupportTicket{
		UserID:  user.ID,
		Topic:   topic,
		Message: msg,
		Status:  domain.TicketStatusOpen,
	}
	if err := repo.CreateSupportTicket(ctx, s.DB, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListMine returns the user's own tickets, newest first.
func (s *SupportService) ListMine(ctx context.Context, user *domain.User) ([]domain.SupportTicket, error) {
	return repo.ListSupportTicketsByUser(ctx, s.DB, user.ID)
}
