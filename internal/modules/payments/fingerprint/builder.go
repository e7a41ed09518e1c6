package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/payledger/internal/domain/payments"
	"github.com/yungbote/payledger/internal/normalization"
)

// BucketWidth is the heuristic time window. Submissions in the same window can collide.
const BucketWidth = 10 * time.Minute

const (
	clearingPrefix    = "CLEARING|"
	transactionPrefix = "TXN|"
	heuristicPrefix   = "HEU|"
)

type Result struct {
	Fingerprint string
	Tier        payments.Tier
	IDs         StrongIDs
}

// Build returns the fingerprint of a submission and the tier that produced it.
// Priority is clearing id, then transaction id, then the heuristic.
func Build(s payments.Submission) Result {
	ids := Extract(s.Reference, s.OCRText, s.ParserHints)

	switch {
	case ids.ClearingID != "":
		return Result{Fingerprint: Digest(clearingPrefix + ids.ClearingID), Tier: payments.TierClearing, IDs: ids}
	case ids.TransactionID != "":
		return Result{Fingerprint: Digest(transactionPrefix + ids.TransactionID), Tier: payments.TierTransaction, IDs: ids}
	}

	key := heuristicPrefix + strings.Join([]string{
		s.Amount.String(),
		s.BranchKey(),
		strconv.FormatInt(Bucket(s.EffectiveAt), 10),
		PayerFingerprint(ids, s),
	}, "|")
	return Result{Fingerprint: Digest(key), Tier: payments.TierHeuristic, IDs: ids}
}

// PayerFingerprint hashes the account tail (labeled account, then the cbu_cvu hint,
// then the reference digits) together with the payer alias.
func PayerFingerprint(ids StrongIDs, s payments.Submission) string {
	source := ids.AccountTail
	if source == "" {
		source = HintString(s.ParserHints, "cbu_cvu")
	}
	if source == "" {
		source = s.Reference
	}
	return Digest(normalization.DigitsTail(source, AccountTailDigits) + "|" + ids.PayerAlias)
}

// Bucket is floor(unix millis / bucket width).
func Bucket(t time.Time) int64 {
	width := BucketWidth.Milliseconds()
	ms := t.UnixMilli()
	b := ms / width
	if ms%width < 0 {
		b--
	}
	return b
}

// Digest is the lowercase hex SHA-256 of s.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
