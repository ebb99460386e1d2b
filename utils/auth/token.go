package auth

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// GenerateToken : 백엔드 API용 요청 토큰 (HS256).
// 백엔드가 인증 없이 뜨는 경우도 있어서 키가 비어 있으면 호출측에서 생략함
// - accessKey / secretKey : 백엔드에 등록한 키 쌍
// - params : 쿼리 파라미터. 있으면 해시를 claim에 포함
func GenerateToken(accessKey string, secretKey string, params map[string]interface{}) (string, error) {
	nonce := strconv.FormatInt(time.Now().UnixNano(), 10) + "_" + strconv.Itoa(rand.Intn(100000))
	claims := jwt.MapClaims{
		"access_key": accessKey,
		"nonce":      nonce,
	}

	if len(params) > 0 {
		claims["query_hash"] = MakeQueryHash(params)
		claims["query_hash_alg"] = "SHA512"
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// MakeQueryHash : 쿼리스트링을 키 정렬 후 SHA512로 해시
func MakeQueryHash(params map[string]interface{}) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var queryParts []string
	for _, k := range keys {
		queryParts = append(queryParts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	queryString := strings.Join(queryParts, "&")

	hash := sha512.New()
	hash.Write([]byte(queryString))
	return hex.EncodeToString(hash.Sum(nil))
}
