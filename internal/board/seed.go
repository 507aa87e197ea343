package board

import (
	"context"
	"fmt"
	"time"

	"github.com/flitsinc/agentboard/internal/idgen"
)

const DefaultBoardTitle = "Main Project"

// DefaultMembers are the participants every fresh deployment starts with.
var DefaultMembers = []Member{
	{ID: "mirza", Name: "Mirza", Role: RoleHuman, Avatar: "M"},
	{ID: "devo", Name: "Devo", Role: RoleAgent, Avatar: "D"},
	{ID: "kodinger", Name: "Kodinger", Role: RoleAgent, Avatar: "K"},
	{ID: "mimin", Name: "Mimin", Role: RoleAgent, Avatar: "MI"},
	{ID: "antigravity", Name: "Antigravity", Role: RoleAgent, Avatar: "A"},
}

// Seed upserts members, creates the default board when none exists and makes
// every seeded member an editor of every board it is not yet part of. It is
// safe to run on every start.
func Seed(ctx context.Context, repo Repository, members []Member, now time.Time) error {
	for _, m := range members {
		if err := repo.UpsertMember(ctx, m); err != nil {
			return fmt.Errorf("seed member %s: %w", m.ID, err)
		}
	}

	boards, err := repo.ListBoards(ctx)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if len(boards) == 0 {
		owner := ""
		if len(members) > 0 {
			owner = members[0].ID
		}
		b, err := repo.CreateBoard(ctx, Board{
			ID:          idgen.NewBoardID(),
			Title:       DefaultBoardTitle,
			Description: "Default board",
			CreatedAt:   now.UTC(),
		}, owner)
		if err != nil {
			return fmt.Errorf("seed board: %w", err)
		}
		boards = append(boards, b)
	}

	for _, b := range boards {
		existing, err := repo.ListBoardMembers(ctx, b.ID)
		if err != nil {
			return fmt.Errorf("seed board %s members: %w", b.ID, err)
		}
		present := make(map[string]bool, len(existing))
		for _, m := range existing {
			present[m.ID] = true
		}
		for _, m := range members {
			if present[m.ID] {
				continue
			}
			if err := repo.AddBoardMember(ctx, b.ID, m.ID, DefaultMemberRole); err != nil {
				return fmt.Errorf("seed board %s member %s: %w", b.ID, m.ID, err)
			}
		}
	}
	return nil
}
