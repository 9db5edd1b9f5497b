package discovery

import (
    "context"
    "database/sql"
    "fmt"
    "strings"

    "github.com/jmoiron/sqlx"
    "github.com/lib/pq"
)

// UserDirectory is the read-only source of candidate attributes. The engine
// never writes through it.
type UserDirectory interface {
    Get(ctx context.Context, id int64) (*CandidateProfile, error)
    Query(ctx context.Context, q *CandidateQuery) ([]*CandidateProfile, error)
}

// RelationshipRegistry exposes every counterpart of a relationship involving
// the user, regardless of status or direction. Any existing relationship
// blocks re-discovery.
type RelationshipRegistry interface {
    ListRelated(ctx context.Context, userID int64) ([]int64, error)
}

// postgresDirectory backs UserDirectory with the users table.
type postgresDirectory struct {
    db *sqlx.DB
}

func NewPostgresDirectory(db *sqlx.DB) UserDirectory {
    return &postgresDirectory{db: db}
}

const candidateColumns = `
    u.id, u.username, u.display_name, u.bio,
    EXTRACT(YEAR FROM AGE(u.birth_date))::int AS age,
    u.gender, u.location_lat, u.location_lng, u.city, u.country,
    u.interests, u.languages, u.community_ids,
    u.trust_score, u.is_verified, u.badge_count, u.connection_count
`

func (d *postgresDirectory) Get(ctx context.Context, id int64) (*CandidateProfile, error) {
    query := `SELECT ` + candidateColumns + ` FROM users u WHERE u.id = $1`

    row := d.db.QueryRowxContext(ctx, query, id)
    profile, err := scanCandidate(row)
    if err == sql.ErrNoRows {
        return nil, ErrUserNotFound
    }
    if err != nil {
        return nil, err
    }
    return profile, nil
}

func (d *postgresDirectory) Query(ctx context.Context, q *CandidateQuery) ([]*CandidateProfile, error) {
    conditions := []string{"u.is_active = TRUE"}
    args := []interface{}{}

    addArg := func(v interface{}) string {
        args = append(args, v)
        return fmt.Sprintf("$%d", len(args))
    }

    if len(q.ExcludeIDs) > 0 {
        conditions = append(conditions, "NOT (u.id = ANY("+addArg(pq.Array(q.ExcludeIDs))+"))")
    }
    if q.MinAge != nil {
        conditions = append(conditions, "EXTRACT(YEAR FROM AGE(u.birth_date)) >= "+addArg(*q.MinAge))
    }
    if q.MaxAge != nil {
        conditions = append(conditions, "EXTRACT(YEAR FROM AGE(u.birth_date)) <= "+addArg(*q.MaxAge))
    }
    if q.Gender != nil && *q.Gender != "" {
        conditions = append(conditions, "u.gender = "+addArg(*q.Gender))
    }
    if q.City != nil && *q.City != "" {
        conditions = append(conditions, "LOWER(u.city) = LOWER("+addArg(*q.City)+")")
    }
    if len(q.Interests) > 0 {
        conditions = append(conditions, "u.interests && "+addArg(pq.Array(q.Interests)))
    }
    if q.OnlyVerified {
        conditions = append(conditions, "u.is_verified = TRUE")
    }
    if q.MinTrustScore != nil {
        conditions = append(conditions, "u.trust_score >= "+addArg(*q.MinTrustScore))
    }

    query := `SELECT ` + candidateColumns + `
        FROM users u
        WHERE ` + strings.Join(conditions, " AND ") + `
        ORDER BY u.last_active DESC, u.id
        LIMIT ` + addArg(q.Limit)

    rows, err := d.db.QueryxContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var profiles []*CandidateProfile
    for rows.Next() {
        profile, err := scanCandidate(rows)
        if err != nil {
            return nil, err
        }
        profiles = append(profiles, profile)
    }

    return profiles, rows.Err()
}

// rowScanner covers both *sqlx.Row and *sqlx.Rows.
type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanCandidate(row rowScanner) (*CandidateProfile, error) {
    var p CandidateProfile
    var interests, languages pq.StringArray
    var communities pq.Int64Array

    err := row.Scan(
        &p.ID, &p.Username, &p.DisplayName, &p.Bio,
        &p.Age, &p.Gender, &p.Latitude, &p.Longitude, &p.City, &p.Country,
        &interests, &languages, &communities,
        &p.TrustScore, &p.IsVerified, &p.BadgeCount, &p.ConnectionCount,
    )
    if err != nil {
        return nil, err
    }

    p.Interests = []string(interests)
    p.Languages = []string(languages)
    p.CommunityIDs = []int64(communities)
    return &p, nil
}

// postgresRelationshipRegistry backs RelationshipRegistry with the
// connections table. Pending and accepted rows both count, in either
// direction.
type postgresRelationshipRegistry struct {
    db *sqlx.DB
}

func NewPostgresRelationshipRegistry(db *sqlx.DB) RelationshipRegistry {
    return &postgresRelationshipRegistry{db: db}
}

func (r *postgresRelationshipRegistry) ListRelated(ctx context.Context, userID int64) ([]int64, error) {
    query := `
        SELECT CASE WHEN requester_id = $1 THEN addressee_id ELSE requester_id END
        FROM connections
        WHERE requester_id = $1 OR addressee_id = $1
    `

    var related []int64
    err := r.db.SelectContext(ctx, &related, query, userID)
    if err != nil {
        return nil, err
    }
    return related, nil
}
