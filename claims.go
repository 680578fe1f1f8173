package edgeAuth

import (
	"time"

	"github.com/MrEthical07/edgeAuth/jwt"
)

// checkClaims applies the identity token claim policy. It returns an empty
// reason when every check passes.
func checkClaims(c jwt.Claims, now time.Time, issuer, audience string) (MetricID, string) {
	exp, ok := c["exp"].(float64)
	if !ok {
		return MetricRejectExpired, "exp missing or not numeric"
	}
	if float64(now.Unix()) >= exp {
		return MetricRejectExpired, "expired"
	}

	if iss, _ := c["iss"].(string); iss != issuer {
		return MetricRejectIssuer, "issuer mismatch"
	}
	// aud must be a single string; array audiences are not accepted.
	if aud, _ := c["aud"].(string); aud != audience {
		return MetricRejectAudience, "audience mismatch"
	}
	if use, _ := c["token_use"].(string); use != jwt.TokenUseID {
		return MetricRejectTokenUse, "token_use mismatch"
	}
	return 0, ""
}
