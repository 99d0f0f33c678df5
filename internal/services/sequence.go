package services

import (
	"hash/crc32"
	"math/rand"

	"github.com/edupath/cbt-service/internal/models"
)

// The per-attempt ordering is pure function of the attempt id: the attempt id
// hashes to a seed, the seed drives a PRNG shuffle, and the result is
// persisted once. Reads sort live rows against the persisted sequence and
// never re-run the shuffle.

// attemptSeed derives the shuffle seed from the immutable attempt id.
func attemptSeed(attemptID string) int64 {
	return int64(crc32.ChecksumIEEE([]byte(attemptID)))
}

// optionSeed combines the attempt seed with the question id so every
// question's option order is independent of the others.
func optionSeed(seed int64, questionID string) int64 {
	return seed + int64(crc32.ChecksumIEEE([]byte(questionID)))
}

// shuffleIDs returns a seeded pseudo-random permutation of ids. The input
// slice is not modified.
func shuffleIDs(ids []string, seed int64) []string {
	out := make([]string, len(ids))
	copy(out, ids)

	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// buildAttemptSequence derives the locked-in question and option ordering for
// a new attempt from its id and the exam's question set.
func buildAttemptSequence(attemptID string, questions []*models.Question) *models.AttemptSequence {
	seed := attemptSeed(attemptID)

	questionIDs := make([]string, 0, len(questions))
	for _, q := range questions {
		questionIDs = append(questionIDs, q.ID)
	}

	optionOrders := make(map[string][]string, len(questions))
	for _, q := range questions {
		optionIDs := make([]string, 0, len(q.Options))
		for _, o := range q.Options {
			optionIDs = append(optionIDs, o.ID)
		}
		optionOrders[q.ID] = shuffleIDs(optionIDs, optionSeed(seed, q.ID))
	}

	return &models.AttemptSequence{
		QuestionOrder: shuffleIDs(questionIDs, seed),
		OptionOrders:  optionOrders,
	}
}

// orderQuestions arranges questions to match the persisted sequence and sorts
// each question's options by its locked option order. Questions missing from
// the store are reported by the count mismatch at the caller.
func orderQuestions(questions []*models.Question, seq *models.AttemptSequence) []*models.Question {
	byID := make(map[string]*models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	ordered := make([]*models.Question, 0, len(seq.QuestionOrder))
	for _, id := range seq.QuestionOrder {
		q, ok := byID[id]
		if !ok {
			continue
		}
		if order, ok := seq.OptionOrders[q.ID]; ok && len(order) > 0 {
			q.Options = orderOptions(q.Options, order)
		}
		ordered = append(ordered, q)
	}
	return ordered
}

func orderOptions(options []models.Option, order []string) []models.Option {
	byID := make(map[string]models.Option, len(options))
	for _, o := range options {
		byID[o.ID] = o
	}

	ordered := make([]models.Option, 0, len(options))
	for _, id := range order {
		if o, ok := byID[id]; ok {
			ordered = append(ordered, o)
			delete(byID, id)
		}
	}
	// Options authored after lock-in are unknown to the sequence; keep them
	// at the tail instead of dropping them.
	for _, o := range options {
		if _, ok := byID[o.ID]; ok {
			ordered = append(ordered, o)
		}
	}
	return ordered
}
