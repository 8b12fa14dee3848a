package service

import (
	"context"

	"github.com/iliyamo/escape-room-booking/internal/model"
	"github.com/iliyamo/escape-room-booking/internal/store"
)

// NotificationService manages the dashboard notification records.
type NotificationService struct {
	records store.Notifications
}

func NewNotificationService(records store.Notifications) *NotificationService {
	return &NotificationService{records: records}
}

func (s *NotificationService) List(ctx context.Context) ([]model.Notification, error) {
	out, err := s.records.ListNotifications(ctx)
	if err != nil {
		return nil, persistence("list notifications", err)
	}
	if out == nil {
		out = []model.Notification{}
	}
	return out, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if err := s.records.MarkNotificationRead(ctx, id); err != nil {
		return lookupError("notification", id, err)
	}
	return nil
}

func (s *NotificationService) Delete(ctx context.Context, id string) error {
	if err := s.records.DeleteNotification(ctx, id); err != nil {
		return lookupError("notification", id, err)
	}
	return nil
}
