package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gigrank/pkg/logger"
)

// Skill pools per category. Postings draw from their own category; profiles
// mix in a few skills from elsewhere.
var categorySkills = map[string][]string{ //nolint:gochecknoglobals // fixed vocabulary
	"Backend":         {"go", "postgres", "grpc", "kafka", "redis", "docker", "kubernetes", "sql"},
	"Frontend":        {"typescript", "react", "css", "vue", "webpack", "figma", "accessibility"},
	"Mobile":          {"swift", "kotlin", "flutter", "react-native", "ios", "android"},
	"Data":            {"python", "pandas", "spark", "sql", "airflow", "dbt", "statistics"},
	"Design":          {"figma", "illustration", "branding", "ux", "typography", "motion"},
	"Writing":         {"copywriting", "seo", "editing", "technical-writing", "translation"},
	"DevOps":          {"terraform", "aws", "kubernetes", "ci", "prometheus", "linux", "docker"},
	"Marketing":       {"seo", "ads", "analytics", "email", "social-media", "copywriting"},
	"Security":        {"pentesting", "owasp", "linux", "networking", "cryptography"},
	"MachineLearning": {"python", "pytorch", "statistics", "mlops", "nlp", "computer-vision"},
}

// categories fixes iteration order over categorySkills.
var categories = []string{ //nolint:gochecknoglobals // fixed vocabulary
	"Backend", "Frontend", "Mobile", "Data", "Design",
	"Writing", "DevOps", "Marketing", "Security", "MachineLearning",
}

const (
	maxPostingAge     = 45 * 24 * time.Hour
	unratedShare      = 0.2
	clientsPerPosting = 4
	maxStakeWeight    = 10
	reviewAttempts    = 10
)

// Generate builds a dataset from cfg. The same seed yields the same
// entities; event ids are always fresh so repeated runs are not deduplicated.
func Generate(ctx context.Context, cfg *Config, now time.Time) (*Dataset, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(now.UnixNano()) //nolint:gosec // any bit pattern is a valid seed
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // test data, not secrets

	logger.Get().Info(ctx, "generating dataset",
		logger.Int("profiles", cfg.Profiles),
		logger.Int("postings", cfg.Postings),
		logger.Int("reviews", cfg.Reviews),
		logger.Int64("seed", int64(seed)), //nolint:gosec // logged for reproduction only
	)

	ds := &Dataset{}
	for i := range max(1, cfg.Postings/clientsPerPosting) {
		ds.Clients = append(ds.Clients, entityID(seed, "client", i))
	}
	for i := range cfg.Profiles {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		ds.Profiles = append(ds.Profiles, generateProfile(rng, entityID(seed, "freelancer", i), i))
	}
	for i := range cfg.Postings {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		owner := ds.Clients[rng.IntN(len(ds.Clients))]
		ds.Postings = append(ds.Postings, generatePosting(rng, entityID(seed, "posting", i), owner, i, now))
	}
	ds.Reviews = generateReviews(rng, ds, cfg.Reviews)

	logger.Get().Info(ctx, "generated dataset", logger.Int("events", ds.Events()))
	return ds, nil
}

// Events returns the number of ingestion requests the dataset makes.
func (d *Dataset) Events() int {
	return len(d.Profiles) + len(d.Postings) + len(d.Reviews)
}

func entityID(seed uint64, kind string, i int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%d/%s/%d", seed, kind, i)).String()
}

func generateProfile(rng *rand.Rand, id string, i int) Profile {
	home := pickN(rng, categories, 1+rng.IntN(3))
	var skills []string
	for _, c := range home {
		skills = append(skills, pickN(rng, categorySkills[c], 2+rng.IntN(3))...)
	}
	// A stray skill from anywhere keeps overlaps imperfect.
	other := categories[rng.IntN(len(categories))]
	skills = append(skills, pickN(rng, categorySkills[other], 1)...)

	rating := 0.0
	if rng.Float64() >= unratedShare {
		rating = math.Round((3+2*rng.Float64())*10) / 10
	}
	return Profile{
		EventID:             uuid.NewString(),
		UserID:              id,
		DisplayName:         fmt.Sprintf("Freelancer %d", i+1),
		Skills:              skills,
		CompletedCategories: home,
		Rating:              rating,
	}
}

func generatePosting(rng *rand.Rand, id, owner string, i int, now time.Time) Posting {
	category := categories[rng.IntN(len(categories))]
	age := time.Duration(rng.Int64N(int64(maxPostingAge)))
	return Posting{
		EventID:   uuid.NewString(),
		PostingID: id,
		OwnerID:   owner,
		Title:     fmt.Sprintf("%s job #%d", category, i+1),
		Category:  category,
		Skills:    pickN(rng, categorySkills[category], 2+rng.IntN(4)),
		PostedAt:  now.Add(-age).UTC().Truncate(time.Second),
	}
}

// generateReviews has posting owners review freelancers for their postings.
// Every (reviewer, reviewee, job) triple is unique.
func generateReviews(rng *rand.Rand, ds *Dataset, n int) []Review {
	if n <= 0 || len(ds.Postings) == 0 || len(ds.Profiles) == 0 {
		return nil
	}
	type key struct{ reviewer, reviewee, job string }
	seen := make(map[key]struct{}, n)
	out := make([]Review, 0, n)
	for attempt := 0; len(out) < n && attempt < n*reviewAttempts; attempt++ {
		p := ds.Postings[rng.IntN(len(ds.Postings))]
		f := ds.Profiles[rng.IntN(len(ds.Profiles))]
		k := key{p.OwnerID, f.UserID, p.PostingID}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, Review{
			EventID:     uuid.NewString(),
			ReviewerID:  p.OwnerID,
			RevieweeID:  f.UserID,
			JobID:       p.PostingID,
			Rating:      skewedRating(rng),
			StakeWeight: 1 + rng.Int64N(maxStakeWeight),
		})
	}
	return out
}

// skewedRating favours 4 and 5 the way marketplace ratings do.
func skewedRating(rng *rand.Rand) int {
	switch r := rng.IntN(20); {
	case r < 9:
		return 5
	case r < 15:
		return 4
	case r < 18:
		return 3
	case r < 19:
		return 2
	default:
		return 1
	}
}

// pickN returns up to n distinct elements of pool in random order.
func pickN(rng *rand.Rand, pool []string, n int) []string {
	idx := rng.Perm(len(pool))
	n = min(n, len(pool))
	out := make([]string, n)
	for i := range n {
		out[i] = pool[idx[i]]
	}
	return out
}
