package service

import (
	"context"
	"errors"
	"testing"

	"algobank/backend/internal/models"
)

type ticketFixture struct {
	svc           *TicketService
	tickets       *mockTicketRepo
	users         *mockUserRepo
	notifications *mockNotificationRepo
	emails        *recordingChannel
}

func newTicketFixture() *ticketFixture {
	log := testLogger()
	tickets := newMockTicketRepo()
	users := newMockUserRepo()
	notifications := newMockNotificationRepo()
	emails := &recordingChannel{}

	svc := NewTicketService(tickets, users,
		NewNotificationService(notifications, log),
		NewEmailService(emails, "http://localhost", log),
		log)

	return &ticketFixture{
		svc:           svc,
		tickets:       tickets,
		users:         users,
		notifications: notifications,
		emails:        emails,
	}
}

func (f *ticketFixture) addUser(t *testing.T, name string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@example.com"}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestCreateTicketDefaultsAndFirstMessage(t *testing.T) {
	f := newTicketFixture()
	user := f.addUser(t, "alice")

	ticket, err := f.svc.Create(context.Background(), CreateTicketInput{
		UserID:  user.ID,
		Subject: "Deposit missing",
		Message: "My deposit never arrived.",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if ticket.Status != models.TicketStatusOpen {
		t.Errorf("status = %s, want open", ticket.Status)
	}
	if ticket.Priority != models.TicketPriorityMedium {
		t.Errorf("priority = %s, want medium default", ticket.Priority)
	}
	if ticket.Category != models.TicketCategoryGeneral {
		t.Errorf("category = %s, want general default", ticket.Category)
	}

	msgs, err := f.tickets.ListMessages(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want the opening message", len(msgs))
	}
	if msgs[0].SenderName != "alice" {
		t.Errorf("sender name = %s, want alice", msgs[0].SenderName)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	f := newTicketFixture()
	owner := f.addUser(t, "alice")
	other := f.addUser(t, "bob")

	ticket, err := f.svc.Create(context.Background(), CreateTicketInput{
		UserID: owner.ID, Subject: "Login issue", Message: "Cannot log in.",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, _, err := f.svc.Get(context.Background(), ticket.ID, other.ID, false); !errors.Is(err, ErrNotTicketOwner) {
		t.Errorf("stranger read err = %v, want ErrNotTicketOwner", err)
	}
	if _, _, err := f.svc.Get(context.Background(), ticket.ID, other.ID, true); err != nil {
		t.Errorf("admin read err = %v, want nil", err)
	}
	if _, _, err := f.svc.Get(context.Background(), ticket.ID, owner.ID, false); err != nil {
		t.Errorf("owner read err = %v, want nil", err)
	}
}

func TestAgentReplyNotifiesAndMovesInProgress(t *testing.T) {
	f := newTicketFixture()
	owner := f.addUser(t, "alice")
	agent := f.addUser(t, "agent")

	ticket, err := f.svc.Create(context.Background(), CreateTicketInput{
		UserID: owner.ID, Subject: "Question", Message: "How do gains work?",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.svc.Reply(context.Background(), ReplyInput{
		TicketID: ticket.ID,
		SenderID: agent.ID,
		Content:  "Gains accrue daily.",
		IsAgent:  true,
	}); err != nil {
		t.Fatalf("Reply: %v", err)
	}

	if ticket.Status != models.TicketStatusInProgress {
		t.Errorf("status = %s, want in_progress after agent reply", ticket.Status)
	}
	if len(f.notifications.items) != 1 {
		t.Errorf("notifications = %d, want 1", len(f.notifications.items))
	}
	if len(f.emails.sent) != 1 {
		t.Errorf("emails = %d, want 1", len(f.emails.sent))
	}
}

func TestUserReplyReopensResolvedTicket(t *testing.T) {
	f := newTicketFixture()
	owner := f.addUser(t, "alice")

	ticket, err := f.svc.Create(context.Background(), CreateTicketInput{
		UserID: owner.ID, Subject: "Question", Message: "First message.",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ticket.Status = models.TicketStatusResolved

	if _, err := f.svc.Reply(context.Background(), ReplyInput{
		TicketID: ticket.ID,
		SenderID: owner.ID,
		Content:  "Still broken.",
	}); err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if ticket.Status != models.TicketStatusOpen {
		t.Errorf("status = %s, want reopened", ticket.Status)
	}
}

func TestReplyToClosedTicketRefused(t *testing.T) {
	f := newTicketFixture()
	owner := f.addUser(t, "alice")

	ticket, err := f.svc.Create(context.Background(), CreateTicketInput{
		UserID: owner.ID, Subject: "Question", Message: "First message.",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ticket.Status = models.TicketStatusClosed

	_, err = f.svc.Reply(context.Background(), ReplyInput{
		TicketID: ticket.ID,
		SenderID: owner.ID,
		Content:  "Hello?",
	})
	if !errors.Is(err, ErrTicketClosed) {
		t.Errorf("err = %v, want ErrTicketClosed", err)
	}
}

func TestReplyOwnershipForNonAgents(t *testing.T) {
	f := newTicketFixture()
	owner := f.addUser(t, "alice")
	stranger := f.addUser(t, "bob")

	ticket, err := f.svc.Create(context.Background(), CreateTicketInput{
		UserID: owner.ID, Subject: "Question", Message: "First message.",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = f.svc.Reply(context.Background(), ReplyInput{
		TicketID: ticket.ID,
		SenderID: stranger.ID,
		Content:  "Me too.",
	})
	if !errors.Is(err, ErrNotTicketOwner) {
		t.Errorf("err = %v, want ErrNotTicketOwner", err)
	}
}

func TestUpdateStatusNotifiesOnResolution(t *testing.T) {
	f := newTicketFixture()
	owner := f.addUser(t, "alice")
	agent := f.addUser(t, "agent")

	ticket, err := f.svc.Create(context.Background(), CreateTicketInput{
		UserID: owner.ID, Subject: "Question", Message: "First message.",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.svc.UpdateStatus(context.Background(), ticket.ID, models.TicketStatusResolved, &agent.ID); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if ticket.Status != models.TicketStatusResolved {
		t.Errorf("status = %s, want resolved", ticket.Status)
	}
	if ticket.AssignedTo == nil || *ticket.AssignedTo != agent.ID {
		t.Errorf("assigned to = %v, want %d", ticket.AssignedTo, agent.ID)
	}
	if len(f.notifications.items) != 1 {
		t.Errorf("notifications = %d, want 1", len(f.notifications.items))
	}

	if err := f.svc.UpdateStatus(context.Background(), ticket.ID, "bogus", nil); err == nil {
		t.Error("expected error for invalid status")
	}
}
