package grpc

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Billy-Davies-2/psl-draft/internal/auth"
	"github.com/Billy-Davies-2/psl-draft/internal/draft"
	"github.com/Billy-Davies-2/psl-draft/internal/logger"
	"github.com/Billy-Davies-2/psl-draft/internal/models"
	"github.com/Billy-Davies-2/psl-draft/internal/pubsub"
)

// EventBus is the slice of the pub/sub broker the gRPC server uses.
type EventBus interface {
	Publish(pubsub.Event)
	Subscribe() chan pubsub.Event
	Unsubscribe(chan pubsub.Event)
}

// Server implements the DraftService on top of the draft engine.
type Server struct {
	engine *draft.Engine
	gate   *auth.Gate
	pubsub EventBus
}

// NewServer creates a new gRPC server
func NewServer(engine *draft.Engine, gate *auth.Gate, ps EventBus) *Server {
	return &Server{
		engine: engine,
		gate:   gate,
		pubsub: ps,
	}
}

// toStatus maps the error taxonomy onto gRPC status codes.
func toStatus(op string, err error) error {
	var (
		verr   *models.ValidationError
		derr   *models.DomainError
		serr   *models.StateError
		access *auth.AccessError
	)
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.As(err, &derr), errors.As(err, &serr):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.As(err, &access):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		logger.Error("gRPC operation failed", "op", op, "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

func (s *Server) publish(eventType string, payload interface{}) {
	if s.pubsub == nil {
		return
	}
	s.pubsub.Publish(pubsub.NewEvent(eventType, payload))
}

func (s *Server) requireAdmin(ctx context.Context, in *structpb.Struct) error {
	pw, err := stringField(in, "adminPassword")
	if err != nil {
		return err
	}
	return s.gate.CheckAdmin(ctx, pw)
}

func respond(op string, v interface{}) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, toStatus(op, err)
	}
	return out, nil
}

type acquisition struct {
	draft.Result
	Message string `json:"message"`
}

// GetState returns the full draft snapshot.
func (s *Server) GetState(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return respond("state", s.engine.State())
}

// ListPlayers returns every player, or only unpicked ones when
// "available" is true.
func (s *Server) ListPlayers(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	available, err := boolField(in, "available")
	if err != nil {
		return nil, toStatus("players", err)
	}
	players := s.engine.AllPlayersSorted()
	if available {
		players = s.engine.AvailablePlayers()
	}
	out, err := wrap("players", players)
	if err != nil {
		return nil, toStatus("players", err)
	}
	return out, nil
}

func (s *Server) RegisterPlayer(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var (
		id, name, country string
		rating, price     int
	)
	err := errors.Join(
		readString(in, "id", &id),
		readString(in, "name", &name),
		readString(in, "country", &country),
		readInt(in, "rating", &rating),
		readInt(in, "price", &price),
	)
	if err != nil {
		return nil, toStatus("register", err)
	}

	p, err := s.engine.RegisterPlayer(name, rating, price, country, id)
	if err != nil {
		return nil, toStatus("register", err)
	}
	s.publish(pubsub.EventPlayerRegister, p)
	return respond("register", p)
}

func (s *Server) SetRating(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.requireAdmin(ctx, in); err != nil {
		return nil, toStatus("rating", err)
	}
	var (
		id     string
		rating int
	)
	if err := errors.Join(readString(in, "playerId", &id), readInt(in, "rating", &rating)); err != nil {
		return nil, toStatus("rating", err)
	}

	p, err := s.engine.SetRating(id, rating)
	if err != nil {
		return nil, toStatus("rating", err)
	}
	s.publish(pubsub.EventPlayerRating, p)
	return respond("rating", p)
}

func (s *Server) ListTeams(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	out, err := wrap("teams", s.engine.Teams())
	if err != nil {
		return nil, toStatus("teams", err)
	}
	return out, nil
}

func (s *Server) UpdateBudget(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.requireAdmin(ctx, in); err != nil {
		return nil, toStatus("budget", err)
	}
	var (
		team   string
		budget int
	)
	if err := errors.Join(readString(in, "team", &team), readInt(in, "budget", &budget)); err != nil {
		return nil, toStatus("budget", err)
	}

	view, err := s.engine.UpdateBudget(team, budget)
	if err != nil {
		return nil, toStatus("budget", err)
	}
	s.publish(pubsub.EventTeamBudget, map[string]interface{}{"team": view.Name, "maxBudget": view.MaxBudget})
	return respond("budget", view)
}

func (s *Server) UpdateBudgets(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.requireAdmin(ctx, in); err != nil {
		return nil, toStatus("budgets", err)
	}
	budgets, err := intMapField(in, "budgets")
	if err != nil {
		return nil, toStatus("budgets", err)
	}

	updated := s.engine.UpdateBudgets(budgets)
	if updated > 0 {
		s.publish(pubsub.EventTeamBudget, map[string]interface{}{"updated": updated})
	}
	return respond("budgets", map[string]interface{}{
		"updated": updated,
		"teams":   s.engine.Teams(),
	})
}

func (s *Server) PreDraftBuy(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var team, password, playerID string
	err := errors.Join(
		readString(in, "team", &team),
		readString(in, "password", &password),
		readString(in, "playerId", &playerID),
	)
	if err != nil {
		return nil, toStatus("predraft", err)
	}
	if err := s.gate.CheckTeam(team, password); err != nil {
		return nil, toStatus("predraft", err)
	}

	res, err := s.engine.PreDraftBuy(team, playerID)
	if err != nil {
		return nil, toStatus("predraft", err)
	}
	logger.Info("Pre-draft purchase", "team", res.Team, "player_id", res.Player.ID, "via", "grpc")
	s.publish(pubsub.EventPreDraftBuy, res)
	return respond("predraft", acquisition{
		Result:  res,
		Message: fmt.Sprintf("%s bought %s for %s", res.Team, res.Player.Name, models.FormatCurrency(res.Player.Price)),
	})
}

func (s *Server) StartDraft(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.requireAdmin(ctx, in); err != nil {
		return nil, toStatus("start", err)
	}
	var rounds int
	if err := readInt(in, "rounds", &rounds); err != nil {
		return nil, toStatus("start", err)
	}

	turn, err := s.engine.StartDraft(rounds)
	if err != nil {
		return nil, toStatus("start", err)
	}
	s.publish(pubsub.EventDraftStart, turn)
	return respond("start", turn)
}

func (s *Server) CurrentTurn(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	turn, err := s.engine.CurrentTurn()
	if err != nil {
		return nil, toStatus("turn", err)
	}
	return respond("turn", turn)
}

// Pick assigns a player to the team on the clock. An optional "team"
// field must name that team.
func (s *Server) Pick(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var team, playerID string
	if err := errors.Join(readString(in, "team", &team), readString(in, "playerId", &playerID)); err != nil {
		return nil, toStatus("pick", err)
	}

	res, err := s.engine.PickAs(team, playerID)
	if err != nil {
		return nil, toStatus("pick", err)
	}
	logger.Info("Drafting player", "player_id", res.Player.ID, "team", res.Team, "round", res.Round, "via", "grpc")
	s.publish(pubsub.EventDraftPick, res)
	return respond("pick", acquisition{
		Result:  res,
		Message: fmt.Sprintf("%s picked %s for %s", res.Team, res.Player.Name, models.FormatCurrency(res.Player.Price)),
	})
}

func (s *Server) Skip(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	skipped, err := s.engine.Skip()
	if err != nil {
		return nil, toStatus("skip", err)
	}
	s.publish(pubsub.EventDraftSkip, skipped)
	return respond("skip", skipped)
}

func (s *Server) Undo(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.engine.Undo()
	if err != nil {
		return nil, toStatus("undo", err)
	}
	s.publish(pubsub.EventDraftUndo, res)
	return respond("undo", acquisition{
		Result:  res,
		Message: fmt.Sprintf("Undone: %s removed from %s", res.Player.Name, res.Team),
	})
}

func (s *Server) Reset(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.requireAdmin(ctx, in); err != nil {
		return nil, toStatus("reset", err)
	}
	if err := s.engine.Reset(); err != nil {
		return nil, toStatus("reset", err)
	}
	s.publish(pubsub.EventDraftReset, nil)
	return respond("reset", map[string]bool{"ok": true})
}

// StreamEvents forwards draft events to the client until it disconnects.
// A "types" list limits the stream to those event types.
func (s *Server) StreamEvents(in *structpb.Struct, stream grpc.ServerStream) error {
	if s.pubsub == nil {
		return status.Error(codes.Unavailable, "event stream not configured")
	}

	var filter map[string]bool
	if v, ok := in.GetFields()["types"]; ok {
		list := v.GetListValue()
		if list == nil {
			return status.Error(codes.InvalidArgument, "types must be a list")
		}
		filter = make(map[string]bool, len(list.GetValues()))
		for _, t := range list.GetValues() {
			filter[t.GetStringValue()] = true
		}
	}

	ch := s.pubsub.Subscribe()
	defer s.pubsub.Unsubscribe(ch)

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			if filter != nil && !filter[event.Type] {
				continue
			}
			msg, err := structpb.NewStruct(map[string]interface{}{
				"type":    event.Type,
				"payload": payloadValue(event.Payload),
			})
			if err != nil {
				logger.Warn("Dropping unencodable event", "type", event.Type, "error", err)
				continue
			}
			if err := stream.SendMsg(msg); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

func payloadValue(p map[string]interface{}) interface{} {
	if p == nil {
		return map[string]interface{}{}
	}
	return p
}

func readString(in *structpb.Struct, key string, dst *string) error {
	v, err := stringField(in, key)
	*dst = v
	return err
}

func readInt(in *structpb.Struct, key string, dst *int) error {
	v, err := intField(in, key)
	*dst = v
	return err
}
