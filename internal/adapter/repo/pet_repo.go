package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"memoria/internal/domain"
)

// PetRepositoryPG implements domain.PetRepository. The pets table is owned by
// the platform CRUD layer; this repository only reads the ownership binding.
type PetRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewPetRepository creates a new pet repository backed by PostgreSQL.
func NewPetRepository(pool *pgxpool.Pool) *PetRepositoryPG {
	return &PetRepositoryPG{pool: pool}
}

// GetByID fetches a pet's ownership projection.
func (r *PetRepositoryPG) GetByID(ctx context.Context, petID string) (*domain.Pet, error) {
	query := `
SELECT id, owner_id
FROM pets
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, petID)
	var pet domain.Pet
	if err := row.Scan(&pet.ID, &pet.OwnerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &pet, nil
}
