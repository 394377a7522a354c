package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// webAppDataKey is the fixed HMAC message used to derive the per-bot secret,
// as prescribed by the Telegram Mini App verification recipe.
const webAppDataKey = "WebAppData"

// InitDataUser is the subset of the embedded "user" JSON object we need.
type InitDataUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// VerifyInitData validates a raw X-Tg-Init-Data payload against botToken and
// returns the embedded Telegram user.
//
// The procedure is order-sensitive:
//  1. parse the blob as URL query parameters (duplicate keys: last wins,
//     blank values retained);
//  2. extract and remove "hash" (absent → ErrInvalidSignature);
//  3. if "auth_date" parses as integer Unix seconds, enforce maxAge
//     (0 disables the check; a non-numeric auth_date is tolerated);
//  4. sort the remaining keys and join "key=value" lines with '\n';
//  5. secret = HMAC_SHA256(key=botToken, msg="WebAppData");
//  6. candidate = hex(HMAC_SHA256(key=secret, msg=checkString));
//  7. constant-time compare candidate against the extracted hash;
//  8. parse the "user" field as JSON and extract its integer id.
func VerifyInitData(raw, botToken string, maxAge time.Duration, now time.Time) (*InitDataUser, error) {
	if botToken == "" {
		return nil, ErrServerMisconfigured
	}

	fields := parseQueryLastWins(raw)

	gotHash, ok := fields["hash"]
	if !ok {
		return nil, ErrInvalidSignature
	}
	delete(fields, "hash")

	if maxAge > 0 {
		if rawDate, ok := fields["auth_date"]; ok {
			if authDate, err := strconv.ParseInt(rawDate, 10, 64); err == nil {
				if now.Unix()-authDate > int64(maxAge/time.Second) {
					return nil, ErrInitDataExpired
				}
			}
			// Non-numeric auth_date is tolerated for compatibility with
			// looser verifications.
		}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+fields[k])
	}
	checkString := strings.Join(lines, "\n")

	secret := hmacSHA256([]byte(botToken), []byte(webAppDataKey))
	candidate := hex.EncodeToString(hmacSHA256(secret, []byte(checkString)))

	if !hmac.Equal([]byte(candidate), []byte(gotHash)) {
		return nil, ErrInvalidSignature
	}

	var user InitDataUser
	if err := json.Unmarshal([]byte(fields["user"]), &user); err != nil || user.ID == 0 {
		return nil, ErrNotAuthenticated
	}
	return &user, nil
}

// SignInitData produces a valid payload for the given fields and token.
// It exists for tests and local tooling; the server only ever verifies.
func SignInitData(fields map[string]string, botToken string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+fields[k])
	}
	secret := hmacSHA256([]byte(botToken), []byte(webAppDataKey))
	hash := hex.EncodeToString(hmacSHA256(secret, []byte(strings.Join(lines, "\n"))))

	q := url.Values{}
	for k, v := range fields {
		q.Set(k, v)
	}
	q.Set("hash", hash)
	return q.Encode()
}

func hmacSHA256(key, msg []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

// parseQueryLastWins decodes a query-string blob into a flat map. Unlike
// url.ParseQuery it keeps going past malformed pairs, keeps blank values,
// and resolves duplicate keys by letting the last occurrence win.
func parseQueryLastWins(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		if key == "" {
			continue
		}
		out[key] = value
	}
	return out
}
