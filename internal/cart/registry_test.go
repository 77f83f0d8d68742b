package cart

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/storage"
	"github.com/angelmondragon/storefront/pkg/storage/memory"
	"go.uber.org/goleak"
)

func TestRegistryReturnsSameModelPerShopper(t *testing.T) {
	reg := NewRegistry(storage.NewAdapter(memory.NewStore().Handle(), nil, nil), nil, nil)
	a, releaseA := reg.Open("shopper-1")
	defer releaseA()
	again, releaseAgain := reg.Open("shopper-1")
	defer releaseAgain()
	if again != a {
		t.Fatal("expected the same model for the same shopper")
	}
	other, releaseOther := reg.Open("shopper-2")
	defer releaseOther()
	if other == a {
		t.Fatal("expected distinct models per shopper")
	}
	if a.Key() != "sf:cart:shopper-1" {
		t.Fatalf("unexpected document key %q", a.Key())
	}
}

func TestRegistryDropsReleasedModels(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(storage.NewAdapter(memory.NewStore().Handle(), nil, nil), nil, nil)

	stream, releaseStream := reg.Open("shopper-1")
	request, releaseRequest := reg.Open("shopper-1")
	request.Add(ctx, "SKU1", "Widget", 10, 2, nil)
	releaseRequest()
	releaseRequest()

	if reg.Len() != 1 {
		t.Fatalf("expected the model to stay open for its stream, got %d", reg.Len())
	}
	if again, release := reg.Open("shopper-1"); again != stream {
		t.Fatal("expected the held model to be reused")
	} else {
		release()
	}

	releaseStream()
	if reg.Len() != 0 {
		t.Fatalf("expected no open models, got %d", reg.Len())
	}

	for i := 0; i < 100; i++ {
		_, release := reg.Open(fmt.Sprintf("drive-by-%d", i))
		release()
	}
	if reg.Len() != 0 {
		t.Fatalf("expected one-off shoppers to leave nothing behind, got %d", reg.Len())
	}

	reopened, release := reg.Open("shopper-1")
	defer release()
	if got := Count(reopened.Read(ctx)); got != 2 {
		t.Fatalf("expected the stored cart to survive eviction, got %d", got)
	}
}

func TestRegistryRelaysExternalChanges(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := memory.NewStore()
	counts := newCountingRecorder()
	reg := NewRegistry(storage.NewAdapter(store.Handle(), nil, nil), nil, counts)
	model, release := reg.Open("shopper-1")
	defer release()

	updates := make(chan Update, 4)
	model.Subscribe(func(u Update) { updates <- u })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reg.Run(ctx) }()

	// Give Run time to subscribe before the other context writes.
	time.Sleep(50 * time.Millisecond)

	otherTab := NewModel(DocumentKey("shopper-1"), storage.NewAdapter(store.Handle(), nil, nil))
	otherTab.Add(ctx, "SKU1", "Widget", 10, 3, nil)

	// Unknown shoppers and non-cart keys are ignored.
	NewModel(DocumentKey("nobody"), storage.NewAdapter(store.Handle(), nil, nil)).Add(ctx, "X", "x", 1, 1, nil)

	select {
	case u := <-updates:
		if u.Source != SourceExternal {
			t.Fatalf("expected external source, got %s", u.Source)
		}
		if u.Count != 3 || len(u.Cart) != 1 || u.Cart[0].Key != "SKU1" {
			t.Fatalf("unexpected update %+v", u)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for relayed update")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if counts.broadcasts["external"] != 1 {
		t.Fatalf("expected one external broadcast, got %d", counts.broadcasts["external"])
	}
}
