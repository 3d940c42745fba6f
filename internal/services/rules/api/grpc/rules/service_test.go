package rules

import (
	"context"
	"io"
	"log"
	"net"
	"strings"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/louisbranch/duality-engine/internal/platform/requestctx"
	"github.com/louisbranch/duality-engine/internal/services/rules/ledger"
	"github.com/louisbranch/duality-engine/internal/services/rules/observability/audit"
	"github.com/louisbranch/duality-engine/internal/services/rules/storage/memory"
)

type testServer struct {
	client *Client
	conn   *grpc.ClientConn
	store  *memory.Store
}

func startServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	l := ledger.New(store, store, store,
		ledger.WithLogger(log.New(io.Discard, "", 0)),
		ledger.WithAudit(audit.NewEmitter(store)),
	)
	svc := NewService(Deps{
		Ledger:  l,
		Catalog: store,
		Targets: store,
		Audit:   audit.NewEmitter(store),
		Locale:  "en-US",
	})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	userFromMetadata := func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if userID := requestctx.UserIDFromIncoming(ctx); userID != "" {
			ctx = requestctx.WithUserID(ctx, userID)
		}
		return handler(ctx, req)
	}
	server := grpc.NewServer(grpc.UnaryInterceptor(userFromMetadata))
	RegisterRulesServiceServer(server, svc)
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient(listener.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &testServer{client: NewClient(conn), conn: conn, store: store}
}

func TestCancelDice(t *testing.T) {
	srv := startServer(t)
	resp, err := srv.client.CancelDice(context.Background(), CancelDiceRequest{
		Advantage:    map[string]int{"d6": 2},
		Disadvantage: map[string]int{"d8": 1},
	})
	if err != nil {
		t.Fatalf("cancel dice: %v", err)
	}
	if resp.Advantage["d6"] != 1 || len(resp.Disadvantage) != 0 {
		t.Fatalf("pools = %v / %v, want {d6:1} / {}", resp.Advantage, resp.Disadvantage)
	}
	if resp.Net != 1 {
		t.Fatalf("net = %d, want 1", resp.Net)
	}
	if !strings.HasPrefix(resp.Formula, "+ ") {
		t.Fatalf("formula = %q, want advantage suffix", resp.Formula)
	}
}

func TestCancelDiceRejectsUnknownFace(t *testing.T) {
	srv := startServer(t)
	ctx := metadata.AppendToOutgoingContext(context.Background(), LocaleHeader, "pt-BR")
	_, err := srv.client.CancelDice(ctx, CancelDiceRequest{Advantage: map[string]int{"d12": 1}})
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.InvalidArgument {
		t.Fatalf("err = %v, want InvalidArgument", err)
	}
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		if msg, ok := detail.(*errdetails.LocalizedMessage); ok {
			localized = msg
		}
	}
	if localized == nil || localized.GetLocale() != "pt-BR" {
		t.Fatalf("localized = %v, want pt-BR copy", localized)
	}
}

func TestDualityRollReplaysSeed(t *testing.T) {
	srv := startServer(t)
	seed := int64(42)
	req := DualityRollRequest{Advantage: map[string]int{"d6": 1}, Modifier: 2, Seed: &seed}

	first, err := srv.client.DualityRoll(context.Background(), req)
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	second, err := srv.client.DualityRoll(context.Background(), req)
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if first.Seed != seed || second.Seed != seed {
		t.Fatalf("seeds = %d/%d, want %d", first.Seed, second.Seed, seed)
	}
	if first.Hope != second.Hope || first.Fear != second.Fear || first.Total != second.Total {
		t.Fatalf("replay mismatch: %+v vs %+v", first, second)
	}
	if len(first.Dice) != 3 {
		t.Fatalf("dice = %d, want hope, fear and one advantage die", len(first.Dice))
	}
}

func TestDualityRollRejectsSeedOutOfRange(t *testing.T) {
	srv := startServer(t)
	seed := int64(-1)
	_, err := srv.client.DualityRoll(context.Background(), DualityRollRequest{Seed: &seed})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %s, want InvalidArgument", status.Code(err))
	}
}

func TestArmCriticalOverrideForcesNextRoll(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()

	armed, err := srv.client.ArmCriticalOverride(ctx, ArmCriticalOverrideRequest{})
	if err != nil {
		t.Fatalf("arm: %v", err)
	}
	if !armed.Armed {
		t.Fatal("expected override armed")
	}

	roll, err := srv.client.DualityRoll(ctx, DualityRollRequest{})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if !roll.Crit || !roll.Forced || roll.Hope != roll.Fear {
		t.Fatalf("roll = %+v, want forced critical", roll)
	}

	disarmed, err := srv.client.ArmCriticalOverride(ctx, ArmCriticalOverrideRequest{Disarm: true})
	if err != nil {
		t.Fatalf("disarm: %v", err)
	}
	if disarmed.Armed {
		t.Fatal("expected override consumed")
	}
}

func TestAdversaryRollKeepsHighestWithAdvantage(t *testing.T) {
	srv := startServer(t)
	seed := int64(7)
	resp, err := srv.client.AdversaryRoll(context.Background(), AdversaryRollRequest{Advantage: 1, Modifier: 3, Seed: &seed})
	if err != nil {
		t.Fatalf("adversary roll: %v", err)
	}
	if resp.Face != 20 || len(resp.Rolls) != 2 || resp.Keep != "highest" {
		t.Fatalf("resp = %+v, want two d20 keep highest", resp)
	}
	if resp.Kept != max(resp.Rolls[0], resp.Rolls[1]) || resp.Total != resp.Kept+3 {
		t.Fatalf("kept = %d total = %d from %v", resp.Kept, resp.Total, resp.Rolls)
	}
}

func TestDamageRoll(t *testing.T) {
	srv := startServer(t)
	seed := int64(3)
	resp, err := srv.client.DamageRoll(context.Background(), DamageRollRequest{
		Dice:     []DiceSpec{{Sides: 8, Count: 2}},
		Modifier: 1,
		Critical: true,
		Seed:     &seed,
	})
	if err != nil {
		t.Fatalf("damage roll: %v", err)
	}
	if resp.CriticalBonus != 16 {
		t.Fatalf("critical bonus = %d, want 16", resp.CriticalBonus)
	}
	if resp.Total != resp.Rolls[0].Total+1+16 {
		t.Fatalf("total = %d from %+v", resp.Total, resp)
	}

	_, err = srv.client.DamageRoll(context.Background(), DamageRollRequest{})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("empty dice code = %s, want InvalidArgument", status.Code(err))
	}
}

func TestLedgerFlowThroughTargets(t *testing.T) {
	srv := startServer(t)
	ctx := requestctx.WithOutgoingUserID(context.Background(), "gm")

	seed := []error{
		srv.client.PutActor(ctx, PutActorRequest{
			ID: "hero", Name: "Marlowe", Type: "character",
			Health:     &Health{Value: 0, Max: 10},
			Thresholds: &Thresholds{Major: 5, Severe: 10},
			Armor:      &Armor{Current: 0, Max: 3},
		}),
		srv.client.PutScene(ctx, PutSceneRequest{ID: "road", Name: "Road"}),
		srv.client.ActivateScene(ctx, ActivateSceneRequest{SceneID: "road"}),
		srv.client.PutToken(ctx, PutTokenRequest{SceneID: "road", ID: "tok-hero", ActorID: "hero", Linked: true}),
	}
	for _, err := range seed {
		if err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
	}

	_, err := srv.client.ApplyDamage(ctx, ApplyDamageRequest{Amount: 5})
	if status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("no targets code = %s, want FailedPrecondition", status.Code(err))
	}

	set, err := srv.client.SetTargets(ctx, SetTargetsRequest{Targets: []Ref{{SceneID: "road", TokenID: "tok-hero"}}})
	if err != nil || set.Count != 1 {
		t.Fatalf("set targets = %+v, %v", set, err)
	}

	applied, err := srv.client.ApplyDamage(ctx, ApplyDamageRequest{Amount: 5, ArmorSlots: 1})
	if err != nil {
		t.Fatalf("apply damage: %v", err)
	}
	if !applied.Success || applied.UndoID == "" || len(applied.Applied) != 1 {
		t.Fatalf("applied = %+v", applied)
	}
	if got := applied.Applied[0]; got.Severity != "major" || got.HealthAfter != 1 || got.ArmorAfter != 1 {
		t.Fatalf("target = %+v, want major, 1 hp, 1 armor", got)
	}

	records, err := srv.client.ListUndoRecords(ctx, ListUndoRecordsRequest{Filter: `user_id = "gm" AND kind = "damage"`})
	if err != nil {
		t.Fatalf("list undo records: %v", err)
	}
	if len(records.Records) != 1 || records.Records[0].ID != applied.UndoID {
		t.Fatalf("records = %+v", records.Records)
	}

	undone, err := srv.client.Undo(ctx, UndoRequest{UndoID: applied.UndoID})
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if !undone.Success || len(undone.Restored) != 1 || !undone.Restored[0].ArmorRestored {
		t.Fatalf("undo = %+v", undone)
	}
	if undone.Restored[0].HealthAfter != 0 {
		t.Fatalf("health after undo = %d, want 0", undone.Restored[0].HealthAfter)
	}

	_, err = srv.client.Undo(ctx, UndoRequest{UndoID: applied.UndoID})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("second undo code = %s, want NotFound", status.Code(err))
	}
}

func TestApplyDamageRejectsInvalidAmount(t *testing.T) {
	srv := startServer(t)
	_, err := srv.client.ApplyDamage(context.Background(), ApplyDamageRequest{
		Targets: []Ref{{ActorID: "hero"}},
		Amount:  0,
	})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %s, want InvalidArgument", status.Code(err))
	}
}

func TestListUndoRecordsRejectsBadFilter(t *testing.T) {
	srv := startServer(t)
	_, err := srv.client.ListUndoRecords(context.Background(), ListUndoRecordsRequest{Filter: `color = "red"`})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %s, want InvalidArgument", status.Code(err))
	}
}

func TestUnknownRequestFieldsAreRejected(t *testing.T) {
	srv := startServer(t)
	in, err := structpb.NewStruct(map[string]any{"amount": 2, "bogus": true})
	if err != nil {
		t.Fatalf("new struct: %v", err)
	}
	err = srv.conn.Invoke(context.Background(), RulesService_ApplyHealing_FullMethodName, in, new(structpb.Struct))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %s, want InvalidArgument", status.Code(err))
	}
}

func TestPutTokenValidation(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()
	if err := srv.client.PutScene(ctx, PutSceneRequest{ID: "road"}); err != nil {
		t.Fatalf("put scene: %v", err)
	}
	tests := []struct {
		name string
		req  PutTokenRequest
		want codes.Code
	}{
		{name: "missing ids", req: PutTokenRequest{SceneID: "road"}, want: codes.InvalidArgument},
		{name: "bad type", req: PutTokenRequest{SceneID: "road", ID: "t", Type: "dragon"}, want: codes.InvalidArgument},
		{name: "linked without actor", req: PutTokenRequest{SceneID: "road", ID: "t", Type: "adversary", Linked: true}, want: codes.InvalidArgument},
		{name: "unknown actor", req: PutTokenRequest{SceneID: "road", ID: "t", ActorID: "ghost"}, want: codes.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := srv.client.PutToken(ctx, tt.req)
			if status.Code(err) != tt.want {
				t.Fatalf("code = %s, want %s", status.Code(err), tt.want)
			}
		})
	}
}
