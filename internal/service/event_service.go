package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/iBySnoW/BeFriendBackend/internal/apperror"
	"github.com/iBySnoW/BeFriendBackend/internal/models"
	"github.com/iBySnoW/BeFriendBackend/internal/storage"
)

const (
	EventServiceName = "befriend.v1.EventService"

	EventServiceCreateEventProcedure     = "/befriend.v1.EventService/CreateEvent"
	EventServiceGetEventProcedure        = "/befriend.v1.EventService/GetEvent"
	EventServiceListGroupEventsProcedure = "/befriend.v1.EventService/ListGroupEvents"
	EventServiceListMyEventsProcedure    = "/befriend.v1.EventService/ListMyEvents"
	EventServiceRespondToEventProcedure  = "/befriend.v1.EventService/RespondToEvent"
)

// EventStorage is what the EventService needs from the gateway.
type EventStorage interface {
	storage.EventStore
	GetGroup(ctx context.Context, groupID int64) (*models.Group, error)
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

// EventService implements the EventService RPC interface.
type EventService struct {
	store EventStorage
}

// NewEventService creates a new EventService.
func NewEventService(store EventStorage) *EventService {
	return &EventService{store: store}
}

// CreateEvent creates an event. The caller becomes an accepted participant
// and everyone in participant_ids is invited as pending. Group events may
// only be created by group members.
func (s *EventService) CreateEvent(ctx context.Context, req *connect.Request[CreateEventRequest]) (*connect.Response[CreateEventResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateEvent request received",
		"name", req.Msg.Name,
		"user_id", userID,
		"participants_count", len(req.Msg.ParticipantIDs),
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, toConnectError(EventServiceCreateEventProcedure, apperror.NewValidation("name", "required"))
	}
	if req.Msg.GroupID != nil {
		if err := requireMember(ctx, s.store, *req.Msg.GroupID, userID); err != nil {
			return nil, toConnectError(EventServiceCreateEventProcedure, err)
		}
	}

	event := &models.Event{
		GroupID:     req.Msg.GroupID,
		Name:        name,
		Description: req.Msg.Description,
		StartsAt:    req.Msg.StartsAt,
		CreatedBy:   userID,
	}
	for _, id := range req.Msg.ParticipantIDs {
		event.Participants = append(event.Participants, models.EventParticipant{UserID: id})
	}

	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, toConnectError(EventServiceCreateEventProcedure, err)
	}

	slog.Info("Event created", "event_id", event.ID)
	return connect.NewResponse(&CreateEventResponse{Event: toEvent(event)}), nil
}

// GetEvent returns an event and its participants.
func (s *EventService) GetEvent(ctx context.Context, req *connect.Request[GetEventRequest]) (*connect.Response[GetEventResponse], error) {
	event, err := s.store.GetEvent(ctx, req.Msg.EventID)
	if err != nil {
		return nil, toConnectError(EventServiceGetEventProcedure, err)
	}
	return connect.NewResponse(&GetEventResponse{Event: toEvent(event)}), nil
}

// ListGroupEvents lists a group's events for one of its members.
func (s *EventService) ListGroupEvents(ctx context.Context, req *connect.Request[ListGroupEventsRequest]) (*connect.Response[ListEventsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireMember(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return nil, toConnectError(EventServiceListGroupEventsProcedure, err)
	}

	events, err := s.store.ListEventsByGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(EventServiceListGroupEventsProcedure, err)
	}
	return connect.NewResponse(&ListEventsResponse{Events: toEvents(events)}), nil
}

// ListMyEvents lists the events the caller takes part in.
func (s *EventService) ListMyEvents(ctx context.Context, req *connect.Request[ListMyEventsRequest]) (*connect.Response[ListEventsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	events, err := s.store.ListEventsByUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(EventServiceListMyEventsProcedure, err)
	}
	return connect.NewResponse(&ListEventsResponse{Events: toEvents(events)}), nil
}

// RespondToEvent records the caller's accepted/declined answer.
func (s *EventService) RespondToEvent(ctx context.Context, req *connect.Request[RespondToEventRequest]) (*connect.Response[RespondToEventResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	status := models.ParticipantStatus(req.Msg.Status)
	if status != models.ParticipantAccepted && status != models.ParticipantDeclined {
		return nil, toConnectError(EventServiceRespondToEventProcedure,
			apperror.NewValidation("status", "must be accepted or declined"))
	}

	if err := s.store.SetParticipantStatus(ctx, req.Msg.EventID, userID, status); err != nil {
		return nil, toConnectError(EventServiceRespondToEventProcedure, err)
	}
	slog.Info("Event response recorded", "event_id", req.Msg.EventID, "user_id", userID, "status", status)

	event, err := s.store.GetEvent(ctx, req.Msg.EventID)
	if err != nil {
		return nil, toConnectError(EventServiceRespondToEventProcedure, err)
	}
	return connect.NewResponse(&RespondToEventResponse{Event: toEvent(event)}), nil
}

// NewEventServiceHandler builds an HTTP handler for the EventService.
func NewEventServiceHandler(svc *EventService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withJSONHandler(opts)
	createEvent := connect.NewUnaryHandler(EventServiceCreateEventProcedure, svc.CreateEvent, opts...)
	getEvent := connect.NewUnaryHandler(EventServiceGetEventProcedure, svc.GetEvent, opts...)
	listGroupEvents := connect.NewUnaryHandler(EventServiceListGroupEventsProcedure, svc.ListGroupEvents, opts...)
	listMyEvents := connect.NewUnaryHandler(EventServiceListMyEventsProcedure, svc.ListMyEvents, opts...)
	respondToEvent := connect.NewUnaryHandler(EventServiceRespondToEventProcedure, svc.RespondToEvent, opts...)

	return "/" + EventServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case EventServiceCreateEventProcedure:
			createEvent.ServeHTTP(w, r)
		case EventServiceGetEventProcedure:
			getEvent.ServeHTTP(w, r)
		case EventServiceListGroupEventsProcedure:
			listGroupEvents.ServeHTTP(w, r)
		case EventServiceListMyEventsProcedure:
			listMyEvents.ServeHTTP(w, r)
		case EventServiceRespondToEventProcedure:
			respondToEvent.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
