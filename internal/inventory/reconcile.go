package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dmferrer/stockpilot-backend/pkg/db/models"
	"github.com/dmferrer/stockpilot-backend/pkg/enums"
)

// Reconcile merges the full snapshot state into one canonical view per SKU.
//
// The function is pure: identical inputs always produce the identical
// response (computedAt is supplied by the caller), which also makes request
// cancellation safe: abandoning a run mutates nothing.
//
// Resolution precedence per SKU:
//  1. an operator-pinned platform that currently has a snapshot wins
//     unconditionally (resolution "sku_source");
//  2. otherwise the snapshot with the greatest captured_at wins, ties broken
//     by the lowest platform ordinal (resolution "most_recent").
//
// Any SKU reported by two or more platforms is flagged as a conflict even
// when the numbers happen to agree: multi-homing itself is the signal the
// operator cares about. Only conflicts auto-resolved by recency produce a
// warning; a pinned override is an explicit operator decision and stays
// quiet.
func Reconcile(ctx context.Context, snaps SnapshotSet, overrides OverrideSet, computedAt time.Time) (*UnifiedInventoryResponse, error) {
	skus := make([]string, 0, len(snaps))
	for sku, set := range snaps {
		if len(set) == 0 {
			continue
		}
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	resp := &UnifiedInventoryResponse{
		Items:      make([]UnifiedInventoryItem, 0, len(skus)),
		Warnings:   []string{},
		ComputedAt: computedAt.UTC(),
	}

	for _, sku := range skus {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		set := snaps[sku]
		hadConflict := len(set) >= 2

		chosen, resolution := selectSnapshot(set, overrides[sku])
		if chosen == nil {
			// Unreachable while every snapshot is complete; counted for
			// forward compatibility with partial snapshots.
			resp.UnresolvedSKUs++
			continue
		}

		resp.Items = append(resp.Items, UnifiedInventoryItem{
			SKU:            sku,
			UnitsAvailable: chosen.UnitsAvailable,
			UnitsReserved:  chosen.UnitsReserved,
			SourcePlatform: chosen.Platform,
			SnapshotAt:     chosen.CapturedAt.UTC(),
			HadConflict:    hadConflict,
			Resolution:     resolution,
		})

		if hadConflict {
			resp.ConflictedSKUs++
			if resolution == enums.ResolutionMostRecent {
				resp.Warnings = append(resp.Warnings, fmt.Sprintf(
					"sku %q reported by %d platforms; auto-resolved to most recent snapshot (%s)",
					sku, len(set), chosen.Platform,
				))
			}
		}
	}

	resp.TotalSKUs = len(resp.Items) + resp.UnresolvedSKUs
	return resp, nil
}

func selectSnapshot(set []models.PlatformSnapshot, pinned enums.CommercePlatform) (*models.PlatformSnapshot, enums.Resolution) {
	if len(set) == 0 {
		return nil, ""
	}

	if len(set) == 1 {
		return &set[0], enums.ResolutionSKUSource
	}

	if pinned != "" {
		for i := range set {
			if set[i].Platform == pinned {
				return &set[i], enums.ResolutionSKUSource
			}
		}
		// Pinned platform has no snapshot yet: the override is inert and
		// the default policy applies.
	}

	best := 0
	for i := 1; i < len(set); i++ {
		if moreAuthoritative(set[i], set[best]) {
			best = i
		}
	}
	return &set[best], enums.ResolutionMostRecent
}

// moreAuthoritative reports whether a beats b under the most-recent policy:
// later capture wins; equal captures fall back to the platform ordinal so a
// run over the same inputs always picks the same snapshot.
func moreAuthoritative(a, b models.PlatformSnapshot) bool {
	if a.CapturedAt.After(b.CapturedAt) {
		return true
	}
	if b.CapturedAt.After(a.CapturedAt) {
		return false
	}
	return a.Platform.Ordinal() < b.Platform.Ordinal()
}
