package repo

import (
	"context"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-market-backend/internal/domain"
)

// DefaultSequenceStart is the first value issued by a fresh sequence.
const DefaultSequenceStart int64 = 1000

// IDSequence names one monotonic id generator and the prefix of the ids
// it issues. Each component has its own counter.
type IDSequence struct {
	Name   string
	Prefix string
}

var (
	IdentityIDs    = IDSequence{Name: "identity", Prefix: "U"}
	ProductIDs     = IDSequence{Name: "product", Prefix: "P"}
	TransactionIDs = IDSequence{Name: "transaction", Prefix: "T"}
	ReviewIDs      = IDSequence{Name: "review", Prefix: "R"}
)

// NextID advances the sequence and returns the prefixed id together with
// its numeric part. The first id issued is start (DefaultSequenceStart when
// start <= 0). Ids are never reused, even when the surrounding transaction
// later rolls back on PostgreSQL; on SQLite a rollback releases the value.
func NextID(ctx context.Context, db *gorm.DB, s IDSequence, start int64) (string, int64, error) {
	if start <= 0 {
		start = DefaultSequenceStart
	}
	tx := db.WithContext(ctx)

	seed := domain.Sequence{Name: s.Name, Counter: start - 1}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return "", 0, err
	}

	res := tx.Model(&domain.Sequence{}).
		Where("name = ?", s.Name).
		Update("counter", gorm.Expr("counter + 1"))
	if res.Error != nil {
		return "", 0, res.Error
	}
	if res.RowsAffected == 0 {
		return "", 0, ErrNotFound
	}

	var cur domain.Sequence
	if err := tx.Where("name = ?", s.Name).First(&cur).Error; err != nil {
		return "", 0, err
	}
	return s.Prefix + strconv.FormatInt(cur.Counter, 10), cur.Counter, nil
}
