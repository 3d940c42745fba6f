package rules

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/louisbranch/duality-engine/internal/core/dice"
	apperrors "github.com/louisbranch/duality-engine/internal/platform/errors"
	"github.com/louisbranch/duality-engine/internal/platform/requestctx"
	"github.com/louisbranch/duality-engine/internal/random"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/actor"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/damage"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/duality"
	"github.com/louisbranch/duality-engine/internal/services/rules/domain/pool"
	"github.com/louisbranch/duality-engine/internal/services/rules/ledger"
	"github.com/louisbranch/duality-engine/internal/services/rules/observability/audit"
	"github.com/louisbranch/duality-engine/internal/services/rules/observability/audit/events"
	"github.com/louisbranch/duality-engine/internal/services/rules/storage"
)

// LocaleHeader selects the locale for user-facing error copy.
const LocaleHeader = "x-locale"

// RollerFactory returns a roller for an optional replay seed along with
// the seed it used.
type RollerFactory func(seed *int64) (dice.Roller, int64, error)

// Deps are the collaborators of a Service.
type Deps struct {
	Ledger   *ledger.Ledger
	Catalog  storage.Catalog
	Targets  storage.TargetStore
	Override *duality.CriticalOverride
	Audit    *audit.Emitter
	// Locale is the fallback error locale.
	Locale string
	// NewRoller defaults to seeded math/rand rollers.
	NewRoller RollerFactory
}

var _ RulesServiceServer = (*Service)(nil)

// Service implements rules.v1.RulesService.
type Service struct {
	ledger    *ledger.Ledger
	catalog   storage.Catalog
	targets   storage.TargetStore
	override  *duality.CriticalOverride
	audit     *audit.Emitter
	locale    string
	newRoller RollerFactory
}

// NewService creates a rules service.
func NewService(deps Deps) *Service {
	s := &Service{
		ledger:    deps.Ledger,
		catalog:   deps.Catalog,
		targets:   deps.Targets,
		override:  deps.Override,
		audit:     deps.Audit,
		locale:    deps.Locale,
		newRoller: deps.NewRoller,
	}
	if s.override == nil {
		s.override = &duality.CriticalOverride{}
	}
	if s.newRoller == nil {
		s.newRoller = func(seed *int64) (dice.Roller, int64, error) {
			return random.NewRoller(seed)
		}
	}
	return s
}

// serve decodes the request, runs fn and encodes the response, converting
// errors to statuses localized for the caller.
func serve[Req, Resp any](ctx context.Context, s *Service, in *structpb.Struct, fn func(context.Context, Req) (Resp, error)) (*structpb.Struct, error) {
	var req Req
	if err := decodePayload(in, &req, true); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	resp, err := fn(ctx, req)
	if err != nil {
		return nil, apperrors.HandleError(err, s.localeFor(ctx))
	}
	out, err := encodePayload(resp)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *Service) localeFor(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(LocaleHeader); len(values) > 0 && strings.TrimSpace(values[0]) != "" {
			return strings.TrimSpace(values[0])
		}
	}
	return s.locale
}

func invalidArgument(format string, args ...any) error {
	return status.Errorf(codes.InvalidArgument, format, args...)
}

func (s *Service) CancelDice(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, s, in, s.cancelDice)
}

func (s *Service) cancelDice(_ context.Context, req CancelDiceRequest) (CancelDiceResponse, error) {
	advantage, err := pool.FromLabels(req.Advantage)
	if err != nil {
		return CancelDiceResponse{}, err
	}
	disadvantage, err := pool.FromLabels(req.Disadvantage)
	if err != nil {
		return CancelDiceResponse{}, err
	}
	advantage, disadvantage = pool.Cancel(advantage, disadvantage)
	parts := make([]string, 0, 2)
	for _, suffix := range []string{pool.Suffix(advantage, pool.Add), pool.Suffix(disadvantage, pool.Subtract)} {
		if suffix != "" {
			parts = append(parts, suffix)
		}
	}
	return CancelDiceResponse{
		Advantage:    advantage.Labels(),
		Disadvantage: disadvantage.Labels(),
		Net:          advantage.Total() - disadvantage.Total(),
		Formula:      strings.Join(parts, " "),
	}, nil
}

func (s *Service) DualityRoll(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, s, in, s.dualityRoll)
}

func (s *Service) dualityRoll(_ context.Context, req DualityRollRequest) (DualityRollResponse, error) {
	advantage, err := pool.FromLabels(req.Advantage)
	if err != nil {
		return DualityRollResponse{}, err
	}
	disadvantage, err := pool.FromLabels(req.Disadvantage)
	if err != nil {
		return DualityRollResponse{}, err
	}
	roller, seed, err := s.newRoller(req.Seed)
	if err != nil {
		return DualityRollResponse{}, err
	}

	outcome, err := duality.NewEngine(roller, s.override).Roll(duality.RollRequest{
		HopeFace:     req.HopeFace,
		FearFace:     req.FearFace,
		Advantage:    advantage,
		Disadvantage: disadvantage,
		Modifier:     req.Modifier,
		Reaction:     req.Reaction,
		Difficulty:   req.Difficulty,
	})
	if err != nil {
		return DualityRollResponse{}, err
	}
	return DualityRollResponse{
		Hope:            outcome.Hope,
		Fear:            outcome.Fear,
		Total:           outcome.Total,
		Category:        outcome.Category.String(),
		Crit:            outcome.IsCrit(),
		Forced:          outcome.Forced,
		Formula:         outcome.Formula,
		Advantage:       outcome.Advantage.Labels(),
		Disadvantage:    outcome.Disadvantage.Labels(),
		Modifier:        outcome.Modifier,
		Dice:            diceFromDomain(outcome.Dice),
		Difficulty:      outcome.Difficulty,
		MeetsDifficulty: outcome.MeetsDifficulty,
		Result:          outcome.Result.String(),
		Seed:            seed,
	}, nil
}

func (s *Service) AdversaryRoll(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, s, in, s.adversaryRoll)
}

func (s *Service) adversaryRoll(_ context.Context, req AdversaryRollRequest) (AdversaryRollResponse, error) {
	if req.Advantage < 0 || req.Disadvantage < 0 {
		return AdversaryRollResponse{}, apperrors.New(apperrors.CodeDiceInvalidPool, "advantage and disadvantage must be non-negative")
	}
	roller, seed, err := s.newRoller(req.Seed)
	if err != nil {
		return AdversaryRollResponse{}, err
	}
	outcome, err := duality.NewEngine(roller, s.override).RollAdversary(duality.AdversaryRequest{
		Face:         req.Face,
		Advantage:    req.Advantage,
		Disadvantage: req.Disadvantage,
		Modifier:     req.Modifier,
		Difficulty:   req.Difficulty,
	})
	if err != nil {
		return AdversaryRollResponse{}, err
	}
	return AdversaryRollResponse{
		Face:            outcome.Face,
		Rolls:           outcome.Rolls,
		Kept:            outcome.Kept,
		Keep:            keepName(outcome.Keep),
		Modifier:        outcome.Modifier,
		Total:           outcome.Total,
		Formula:         outcome.Formula,
		Critical:        outcome.Critical,
		Dice:            diceFromDomain(outcome.Dice),
		Difficulty:      outcome.Difficulty,
		MeetsDifficulty: outcome.MeetsDifficulty,
		Seed:            seed,
	}, nil
}

func (s *Service) DamageRoll(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, s, in, s.damageRoll)
}

func (s *Service) damageRoll(_ context.Context, req DamageRollRequest) (DamageRollResponse, error) {
	if len(req.Dice) == 0 {
		return DamageRollResponse{}, apperrors.Wrap(apperrors.CodeDiceMissing, "at least one damage die is required", dice.ErrMissingDice)
	}
	specs := make([]dice.Spec, len(req.Dice))
	for i, spec := range req.Dice {
		if spec.Sides <= 0 || spec.Count <= 0 {
			return DamageRollResponse{}, apperrors.New(apperrors.CodeDiceInvalidSpec,
				fmt.Sprintf("dice group %d must have positive sides and count", i))
		}
		specs[i] = dice.Spec{Sides: spec.Sides, Count: spec.Count}
	}
	roller, seed, err := s.newRoller(req.Seed)
	if err != nil {
		return DamageRollResponse{}, err
	}
	result, err := damage.Roll(roller, damage.RollRequest{Dice: specs, Modifier: req.Modifier, Critical: req.Critical})
	if err != nil {
		return DamageRollResponse{}, err
	}
	rolls := make([]DiceRoll, len(result.Rolls))
	for i, roll := range result.Rolls {
		rolls[i] = DiceRoll{Sides: roll.Sides, Results: roll.Results, Total: roll.Total}
	}
	return DamageRollResponse{
		Rolls:         rolls,
		BaseTotal:     result.BaseTotal,
		Modifier:      result.Modifier,
		CriticalBonus: result.CriticalBonus,
		Total:         result.Total,
		Seed:          seed,
	}, nil
}

func (s *Service) ArmCriticalOverride(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, s, in, s.armCriticalOverride)
}

func (s *Service) armCriticalOverride(ctx context.Context, req ArmCriticalOverrideRequest) (ArmCriticalOverrideResponse, error) {
	if req.Disarm {
		s.override.Disarm()
	} else {
		s.override.Arm()
		if err := s.audit.Emit(ctx, storage.AuditEvent{
			EventName: events.CriticalArmed,
			UserID:    requestctx.UserIDFromContext(ctx),
		}); err != nil {
			return ArmCriticalOverrideResponse{}, fmt.Errorf("audit critical override: %w", err)
		}
	}
	return ArmCriticalOverrideResponse{Armed: s.override.Armed()}, nil
}

func (s *Service) SetTargets(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, s, in, s.setTargets)
}

func (s *Service) setTargets(ctx context.Context, req SetTargetsRequest) (SetTargetsResponse, error) {
	refs, err := s.validRefs(req.Targets)
	if err != nil {
		return SetTargetsResponse{}, err
	}
	if err := s.targets.SetTargets(ctx, requestctx.UserIDFromContext(ctx), refs); err != nil {
		return SetTargetsResponse{}, fmt.Errorf("set targets: %w", err)
	}
	return SetTargetsResponse{Count: len(refs)}, nil
}

func (s *Service) SetSelection(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, s, in, s.setSelection)
}

func (s *Service) setSelection(ctx context.Context, req SetTargetsRequest) (SetTargetsResponse, error) {
	refs, err := s.validRefs(req.Targets)
	if err != nil {
		return SetTargetsResponse{}, err
	}
	if err := s.targets.SetSelection(ctx, requestctx.UserIDFromContext(ctx), refs); err != nil {
		return SetTargetsResponse{}, fmt.Errorf("set selection: %w", err)
	}
	return SetTargetsResponse{Count: len(refs)}, nil
}

func (s *Service) validRefs(refs []Ref) ([]actor.Ref, error) {
	out := refsToDomain(refs)
	for _, ref := range out {
		if err := ref.Validate(); err != nil {
			return nil, invalidArgument("invalid target %s: %v", ref, err)
		}
	}
	return out, nil
}

func (s *Service) ApplyDamage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, s, in, s.applyDamage)
}

func (s *Service) applyDamage(ctx context.Context, req ApplyDamageRequest) (LedgerResponse, error) {
	result, err := s.ledger.ApplyDamage(ctx, ledger.DamageRequest{
		Targets:  refsToDomain(req.Targets),
		Amount:   req.Amount,
		Source:   optionalRef(req.Source),
		SkipUndo: req.SkipUndo,
		Armor: ledger.ArmorRequest{
			Slots:     req.ArmorSlots,
			PerTarget: req.ArmorPerTarget,
			ByName:    req.ArmorByName,
		},
	})
	if err != nil {
		return LedgerResponse{}, err
	}
	return ledgerResponse(result), nil
}

func (s *Service) ApplyHealing(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, s, in, s.applyHealing)
}

func (s *Service) applyHealing(ctx context.Context, req ApplyHealingRequest) (LedgerResponse, error) {
	result, err := s.ledger.ApplyHealing(ctx, ledger.HealRequest{
		Targets:  refsToDomain(req.Targets),
		Amount:   req.Amount,
		Source:   optionalRef(req.Source),
		SkipUndo: req.SkipUndo,
	})
	if err != nil {
		return LedgerResponse{}, err
	}
	return ledgerResponse(result), nil
}

func (s *Service) ApplyDirectDamage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, s, in, s.applyDirectDamage)
}

func (s *Service) applyDirectDamage(ctx context.Context, req ApplyDirectDamageRequest) (LedgerResponse, error) {
	result, err := s.ledger.ApplyDirectDamage(ctx, ledger.DirectDamageRequest{
		Targets:  refsToDomain(req.Targets),
		Amount:   req.Amount,
		Source:   optionalRef(req.Source),
		SkipUndo: req.SkipUndo,
	})
	if err != nil {
		return LedgerResponse{}, err
	}
	return ledgerResponse(result), nil
}

func (s *Service) Undo(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, s, in, s.undo)
}

func (s *Service) undo(ctx context.Context, req UndoRequest) (UndoResponse, error) {
	if strings.TrimSpace(req.UndoID) == "" {
		return UndoResponse{}, invalidArgument("undo_id is required")
	}
	result, err := s.ledger.Restore(ctx, req.UndoID)
	if err != nil {
		return UndoResponse{}, err
	}
	return undoResponse(result), nil
}

func (s *Service) ListUndoRecords(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, s, in, s.listUndoRecords)
}

func (s *Service) listUndoRecords(_ context.Context, req ListUndoRecordsRequest) (ListUndoRecordsResponse, error) {
	records, err := s.ledger.UndoStore().List(req.Filter)
	if err != nil {
		return ListUndoRecordsResponse{}, err
	}
	resp := ListUndoRecordsResponse{Records: make([]UndoRecord, len(records))}
	for i, record := range records {
		resp.Records[i] = undoRecord(record)
	}
	return resp, nil
}

func (s *Service) PutActor(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, s, in, s.putActor)
}

func (s *Service) putActor(ctx context.Context, req PutActorRequest) (Empty, error) {
	if strings.TrimSpace(req.ID) == "" {
		return Empty{}, invalidArgument("actor id is required")
	}
	if !actor.Type(req.Type).Valid() {
		return Empty{}, invalidArgument("actor type %q is invalid", req.Type)
	}
	return Empty{}, s.catalog.PutActor(ctx, storage.ActorRecord{
		ID:         req.ID,
		Name:       req.Name,
		Type:       actor.Type(req.Type),
		Health:     req.Health.domain(),
		Thresholds: req.Thresholds.domain(),
		Armor:      req.Armor.domain(),
	})
}

func (s *Service) PutScene(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, s, in, s.putScene)
}

func (s *Service) putScene(ctx context.Context, req PutSceneRequest) (Empty, error) {
	if strings.TrimSpace(req.ID) == "" {
		return Empty{}, invalidArgument("scene id is required")
	}
	return Empty{}, s.catalog.PutScene(ctx, storage.SceneRecord{ID: req.ID, Name: req.Name})
}

func (s *Service) PutToken(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, s, in, s.putToken)
}

func (s *Service) putToken(ctx context.Context, req PutTokenRequest) (Empty, error) {
	if strings.TrimSpace(req.SceneID) == "" || strings.TrimSpace(req.ID) == "" {
		return Empty{}, invalidArgument("scene id and token id are required")
	}
	if req.Type != "" && !actor.Type(req.Type).Valid() {
		return Empty{}, invalidArgument("token type %q is invalid", req.Type)
	}
	if req.Linked && req.ActorID == "" {
		return Empty{}, invalidArgument("linked token requires an actor id")
	}
	return Empty{}, s.catalog.PutToken(ctx, storage.TokenRecord{
		SceneID:    req.SceneID,
		ID:         req.ID,
		ActorID:    req.ActorID,
		Name:       req.Name,
		Type:       actor.Type(req.Type),
		Linked:     req.Linked,
		Health:     req.Health.domain(),
		Thresholds: req.Thresholds.domain(),
		Armor:      req.Armor.domain(),
	})
}

func (s *Service) DeleteToken(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, s, in, s.deleteToken)
}

func (s *Service) deleteToken(ctx context.Context, req DeleteTokenRequest) (Empty, error) {
	if strings.TrimSpace(req.SceneID) == "" || strings.TrimSpace(req.TokenID) == "" {
		return Empty{}, invalidArgument("scene id and token id are required")
	}
	return Empty{}, s.catalog.DeleteToken(ctx, req.SceneID, req.TokenID)
}

func (s *Service) ActivateScene(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, s, in, s.activateScene)
}

func (s *Service) activateScene(ctx context.Context, req ActivateSceneRequest) (Empty, error) {
	if strings.TrimSpace(req.SceneID) == "" {
		return Empty{}, invalidArgument("scene id is required")
	}
	return Empty{}, s.catalog.ActivateScene(ctx, req.SceneID)
}
