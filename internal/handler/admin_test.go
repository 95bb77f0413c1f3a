package handler

import (
	"testing"

	"github.com/friluft/booking-server/internal/model"
	"github.com/friluft/booking-server/internal/repository"
)

func TestResourceAmounts(t *testing.T) {
	t.Parallel()

	registry, err := repository.NewRegistry([]model.Resource{
		{ID: 1, Slug: "canoe", Name: "Canoe", MaxQuantity: 5, LedgerTable: "canoe_ledger"},
		{ID: 2, Slug: "kayak", Name: "Kayak", MaxQuantity: 8, LedgerTable: "kayak_ledger"},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	t.Run("maps known resources by slug", func(t *testing.T) {
		got := resourceAmounts(registry, []model.BookingResource{
			{ResourceID: 1, Amount: 2},
			{ResourceID: 2, Amount: 3},
		})
		if len(got) != 2 || got["canoe"] != 2 || got["kayak"] != 3 {
			t.Fatalf("resourceAmounts = %v", got)
		}
	})

	t.Run("renders unknown resource ids instead of dropping them", func(t *testing.T) {
		got := resourceAmounts(registry, []model.BookingResource{
			{ResourceID: 1, Amount: 2},
			{ResourceID: 99, Amount: 4},
		})
		if len(got) != 2 {
			t.Fatalf("resourceAmounts = %v, want both rows kept", got)
		}
		if got["resource-99"] != 4 {
			t.Fatalf("resourceAmounts = %v, want unknown id under resource-99", got)
		}
	})

	t.Run("empty rows map to nil", func(t *testing.T) {
		if got := resourceAmounts(registry, nil); got != nil {
			t.Fatalf("resourceAmounts = %v, want nil", got)
		}
	})
}
