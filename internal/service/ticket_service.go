package service

import (
	"context"
	"errors"
	"fmt"

	"algobank/backend/internal/models"
	"algobank/backend/internal/repository"
	"algobank/backend/pkg/logger"
)

var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrTicketClosed   = errors.New("ticket is closed")
	ErrNotTicketOwner = errors.New("not the ticket owner")
)

// TicketService handles the support ticket thread. Replies from agents email
// the ticket owner; user replies notify nobody but reopen resolved tickets.
type TicketService struct {
	ticketRepo          repository.TicketRepository
	userRepo            repository.UserRepository
	notificationService *NotificationService
	emailService        *EmailService
	logger              *logger.Logger
}

func NewTicketService(
	ticketRepo repository.TicketRepository,
	userRepo repository.UserRepository,
	notificationService *NotificationService,
	emailService *EmailService,
	log *logger.Logger,
) *TicketService {
	return &TicketService{
		ticketRepo:          ticketRepo,
		userRepo:            userRepo,
		notificationService: notificationService,
		emailService:        emailService,
		logger:              log,
	}
}

type CreateTicketInput struct {
	UserID   uint64
	Subject  string
	Message  string
	Priority string
	Category string
}

func (s *TicketService) Create(ctx context.Context, input CreateTicketInput) (*models.SupportTicket, error) {
	user, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if input.Priority == "" {
		input.Priority = models.TicketPriorityMedium
	}
	if input.Category == "" {
		input.Category = models.TicketCategoryGeneral
	}

	ticket := &models.SupportTicket{
		UserID:   input.UserID,
		Subject:  input.Subject,
		Priority: input.Priority,
		Category: input.Category,
	}
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, err
	}

	msg := &models.SupportMessage{
		TicketID:   ticket.ID,
		SenderID:   input.UserID,
		SenderName: user.Name,
		Content:    input.Message,
	}
	if err := s.ticketRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	return ticket, nil
}

// Get returns a ticket with its message thread. Non-admin callers may only
// read their own tickets.
func (s *TicketService) Get(ctx context.Context, id, callerID uint64, isAdmin bool) (*models.SupportTicket, []*models.SupportMessage, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if ticket == nil {
		return nil, nil, ErrTicketNotFound
	}
	if !isAdmin && ticket.UserID != callerID {
		return nil, nil, ErrNotTicketOwner
	}

	msgs, err := s.ticketRepo.ListMessages(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return ticket, msgs, nil
}

func (s *TicketService) ListMine(ctx context.Context, userID uint64) ([]*models.SupportTicket, error) {
	return s.ticketRepo.ListByUser(ctx, userID)
}

func (s *TicketService) ListAll(ctx context.Context, status string) ([]*models.SupportTicket, error) {
	if status != "" && !models.ValidTicketStatus(status) {
		return nil, fmt.Errorf("invalid ticket status %q", status)
	}
	return s.ticketRepo.ListAll(ctx, status)
}

type ReplyInput struct {
	TicketID uint64
	SenderID uint64
	Content  string
	IsAgent  bool
}

// Reply appends a message to the thread. A user reply to a resolved ticket
// reopens it; replies to closed tickets are refused.
func (s *TicketService) Reply(ctx context.Context, input ReplyInput) (*models.SupportMessage, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, input.TicketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	if !input.IsAgent && ticket.UserID != input.SenderID {
		return nil, ErrNotTicketOwner
	}
	if ticket.Status == models.TicketStatusClosed {
		return nil, ErrTicketClosed
	}

	sender, err := s.userRepo.FindByID(ctx, input.SenderID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up sender: %w", err)
	}
	if sender == nil {
		return nil, ErrUserNotFound
	}

	msg := &models.SupportMessage{
		TicketID:   input.TicketID,
		SenderID:   input.SenderID,
		SenderName: sender.Name,
		Content:    input.Content,
		IsAgent:    input.IsAgent,
	}
	if err := s.ticketRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	if input.IsAgent {
		s.notificationService.Notify(ctx, ticket.UserID,
			"Support reply",
			fmt.Sprintf("There is a new reply on your ticket %q.", ticket.Subject),
			models.NotificationCategorySupport)
		if owner, err := s.userRepo.FindByID(ctx, ticket.UserID); err == nil && owner != nil {
			s.emailService.SendTicketReply(owner.Email, owner.Name, ticket.Subject)
		}
		if ticket.Status == models.TicketStatusOpen {
			if _, err := s.ticketRepo.UpdateStatus(ctx, ticket.ID, models.TicketStatusInProgress, &input.SenderID); err != nil {
				s.logger.WithError(err).WithField("ticket_id", ticket.ID).Warn("failed to move ticket in progress")
			}
		}
	} else if ticket.Status == models.TicketStatusResolved {
		if _, err := s.ticketRepo.UpdateStatus(ctx, ticket.ID, models.TicketStatusOpen, nil); err != nil {
			s.logger.WithError(err).WithField("ticket_id", ticket.ID).Warn("failed to reopen ticket")
		}
	}

	return msg, nil
}

// UpdateStatus is the admin status transition.
func (s *TicketService) UpdateStatus(ctx context.Context, id uint64, status string, assignedTo *uint64) error {
	if !models.ValidTicketStatus(status) {
		return fmt.Errorf("invalid ticket status %q", status)
	}

	ticket, err := s.ticketRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if ticket == nil {
		return ErrTicketNotFound
	}

	if _, err := s.ticketRepo.UpdateStatus(ctx, id, status, assignedTo); err != nil {
		return err
	}

	if status == models.TicketStatusResolved || status == models.TicketStatusClosed {
		s.notificationService.Notify(ctx, ticket.UserID,
			"Ticket "+status,
			fmt.Sprintf("Your ticket %q has been marked %s.", ticket.Subject, status),
			models.NotificationCategorySupport)
	}

	return nil
}

// Attach stores uploaded file metadata on a message.
func (s *TicketService) Attach(ctx context.Context, att *models.SupportAttachment) error {
	return s.ticketRepo.AddAttachment(ctx, att)
}
