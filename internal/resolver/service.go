package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	archerr "git.home.luguber.info/inful/docarchive/internal/errors"
)

// Message type identifiers for the in-process resolution service.
const (
	MessageTypeResolveReference         = "resolve-reference"
	MessageTypeResolveReferenceResponse = "resolve-reference-response"
)

// Message is the envelope exchanged with a documentation server.
type Message struct {
	Type       string          `json:"type"`
	Identifier string          `json:"identifier,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// MessageHandler processes one request message and returns the response.
type MessageHandler func(ctx context.Context, msg Message) (Message, error)

// DocumentationServer dispatches messages to handlers registered by message
// type. Handlers for different servers may complete out of order; requests
// are correlated by the convert-request identifier inside the payload.
type DocumentationServer struct {
	mu       sync.RWMutex
	handlers map[string]MessageHandler
}

// NewDocumentationServer creates a server with no registered services.
func NewDocumentationServer() *DocumentationServer {
	return &DocumentationServer{handlers: make(map[string]MessageHandler)}
}

// Register installs a handler for a message type, replacing any previous one.
func (s *DocumentationServer) Register(messageType string, handler MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[messageType] = handler
}

// Process dispatches a message to its handler.
func (s *DocumentationServer) Process(ctx context.Context, msg Message) (Message, error) {
	s.mu.RLock()
	handler, ok := s.handlers[msg.Type]
	s.mu.RUnlock()
	if !ok {
		return Message{}, archerr.New(archerr.CategoryResolver, archerr.SeverityError,
			fmt.Sprintf("no service registered for message type %q", msg.Type))
	}
	return handler(ctx, msg)
}

// ResolveRequestPayload is the payload of a resolve-reference request: a
// tagged union of topic URL or symbol USR, plus the identifier correlating
// the response to the in-flight conversion.
type ResolveRequestPayload struct {
	ConvertRequestIdentifier string  `json:"convertRequestIdentifier"`
	Topic                    *string `json:"topic,omitempty"`
	Symbol                   *string `json:"symbol,omitempty"`
}

// ResolveResponsePayload wraps the same union an out-of-process resolver
// returns.
type ResolveResponsePayload struct {
	ConvertRequestIdentifier string               `json:"convertRequestIdentifier,omitempty"`
	ResolvedInformation      *ResolvedInformation `json:"resolvedInformation,omitempty"`
	ErrorMessage             *string              `json:"errorMessage,omitempty"`
}

// ServiceResolver adapts a documentation server into an ExternalResolver.
// A single conversion run has at most one outstanding request per
// unresolved reference.
type ServiceResolver struct {
	bundleID         string
	server           *DocumentationServer
	convertRequestID string
}

// NewServiceResolver creates a resolver sending resolve-reference messages
// to the given server on behalf of one conversion run.
func NewServiceResolver(bundleID string, server *DocumentationServer) *ServiceResolver {
	return &ServiceResolver{
		bundleID:         bundleID,
		server:           server,
		convertRequestID: uuid.NewString(),
	}
}

// BundleIdentifier returns the catalog identifier this resolver serves.
func (s *ServiceResolver) BundleIdentifier() string { return s.bundleID }

// ResolveTopic resolves a topic URL through the server.
func (s *ServiceResolver) ResolveTopic(ctx context.Context, url string) (*ResolvedInformation, error) {
	return s.request(ctx, ResolveRequestPayload{
		ConvertRequestIdentifier: s.convertRequestID,
		Topic:                    &url,
	}, url)
}

// ResolveSymbol resolves a precise symbol identifier through the server.
func (s *ServiceResolver) ResolveSymbol(ctx context.Context, usr string) (*ResolvedInformation, error) {
	return s.request(ctx, ResolveRequestPayload{
		ConvertRequestIdentifier: s.convertRequestID,
		Symbol:                   &usr,
	}, usr)
}

func (s *ServiceResolver) request(ctx context.Context, payload ResolveRequestPayload, requested string) (*ResolvedInformation, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryResolver, archerr.SeverityError, "encode resolve request")
	}
	response, err := s.server.Process(ctx, Message{
		Type:       MessageTypeResolveReference,
		Identifier: uuid.NewString(),
		Payload:    raw,
	})
	if err != nil {
		return nil, err
	}
	if response.Type != MessageTypeResolveReferenceResponse {
		return nil, archerr.ProtocolError(
			fmt.Sprintf("resolution service responded with message type %q", response.Type))
	}

	var result ResolveResponsePayload
	if err := json.Unmarshal(response.Payload, &result); err != nil {
		return nil, archerr.Wrap(err, archerr.CategoryProtocol, archerr.SeverityError,
			"decode resolve-reference response payload")
	}
	switch {
	case result.ResolvedInformation != nil:
		return result.ResolvedInformation, nil
	case result.ErrorMessage != nil:
		return nil, &ResolutionFailure{Reference: requested, Message: *result.ErrorMessage}
	default:
		return nil, archerr.ProtocolError(
			"resolve-reference response carries neither resolvedInformation nor errorMessage")
	}
}
