package http

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/goatnetwork/covered-call/internal/config"
	"github.com/goatnetwork/covered-call/internal/db"
	"github.com/goatnetwork/covered-call/internal/derive"
	"github.com/goatnetwork/covered-call/internal/ledger"
	"github.com/goatnetwork/covered-call/internal/metrics"
	"github.com/goatnetwork/covered-call/internal/program"
	"github.com/goatnetwork/covered-call/internal/state"
	"github.com/goatnetwork/covered-call/internal/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNow = int64(1_700_000_000)

var (
	testProgramID = types.MustPubkeyFromBase58(config.DefaultProgramID)
	testSecret    = bytes.Repeat([]byte{7}, 32)
)

type apiFixture struct {
	t      *testing.T
	router *gin.Engine
	token  string

	sellerKey ed25519.PrivateKey
	seller    types.Pubkey
	buyer     types.Pubkey
	mintBase  types.Pubkey
	mintQuote types.Pubkey
	funding   types.Pubkey
}

func newKey(t *testing.T) types.Pubkey {
	var pk types.Pubkey
	_, err := rand.Read(pk[:])
	require.NoError(t, err)
	return pk
}

func adminToken(t *testing.T, secret []byte, exp time.Time) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops",
		"exp": exp.Unix(),
	}).SignedString(secret)
	require.NoError(t, err)
	return token
}

func newAPIFixture(t *testing.T) *apiFixture {
	gin.SetMode(gin.TestMode)
	config.AppConfig = config.Config{
		DbType:         config.DB_TYPE_SQLITE,
		DbDir:          t.TempDir(),
		ProgramID:      testProgramID,
		EnableAdmin:    true,
		AdminJwtSecret: testSecret,
	}
	dm, err := db.OpenDatabaseManager(config.AppConfig)
	require.NoError(t, err)
	t.Cleanup(func() { dm.Close() })

	m := metrics.NewMetrics()
	st := state.InitializeState(dm, program.NewProgram(testProgramID), ledger.ClockFunc(func() int64 { return testNow }), m)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return &apiFixture{
		t:         t,
		router:    NewHTTPServer(st, m).Router(),
		token:     adminToken(t, testSecret, time.Now().Add(time.Hour)),
		sellerKey: priv,
		seller:    types.PubkeyFromEd25519(pub),
		buyer:     newKey(t),
		mintBase:  newKey(t),
		mintQuote: newKey(t),
	}
}

func (f *apiFixture) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// seed creates both mints and funds the seller through the admin routes.
func (f *apiFixture) seed(balance uint64) {
	authority := newKey(f.t)
	for _, mint := range []types.Pubkey{f.mintBase, f.mintQuote} {
		rec := f.do("POST", "/api/v1/admin/mints", CreateMintRequest{Address: &mint, Authority: authority, Decimals: 6}, f.token)
		require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := f.do("POST", "/api/v1/admin/token-accounts", OpenTokenAccountRequest{Owner: f.seller, Mint: f.mintBase}, f.token)
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	f.funding = types.MustPubkeyFromBase58(decode(f.t, rec)["address"].(string))

	rec = f.do("POST", "/api/v1/admin/mint-to", MintToRequest{Mint: f.mintBase, Dest: f.funding, Amount: balance}, f.token)
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())
}

func (f *apiFixture) initializeRequest(amountBase uint64, expiry int64) InitializeRequest {
	req := InitializeRequest{
		Seller:          f.seller,
		Buyer:           f.buyer,
		MintBase:        f.mintBase,
		MintQuote:       f.mintQuote,
		Funding:         f.funding,
		AmountBase:      amountBase,
		AmountQuote:     50_000,
		TimestampExpiry: expiry,
	}
	accts := req.accounts()
	addrs, err := derive.CoveredCallAddresses(testProgramID, accts.Terms(req.args()))
	require.NoError(f.t, err)
	accts.Escrow, accts.Vault = addrs.Escrow, addrs.Vault
	req.Signature = program.SignInitialize(f.sellerKey, testProgramID, accts, req.args())
	return req
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do("GET", "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, config.DefaultProgramID, body["program_id"])

	_, err := uuid.Parse(rec.Header().Get(headerRequestID))
	assert.NoError(t, err)
}

func TestRequestIDPassthrough(t *testing.T) {
	f := newAPIFixture(t)
	id := uuid.NewString()
	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	req.Header.Set(headerRequestID, id)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(headerRequestID))
}

func TestAdminAuth(t *testing.T) {
	f := newAPIFixture(t)
	body := CreateMintRequest{Authority: newKey(t), Decimals: 6}

	assert.Equal(t, http.StatusUnauthorized, f.do("POST", "/api/v1/admin/mints", body, "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do("POST", "/api/v1/admin/mints", body, "garbage").Code)

	wrongKey := adminToken(t, bytes.Repeat([]byte{8}, 32), time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusUnauthorized, f.do("POST", "/api/v1/admin/mints", body, wrongKey).Code)

	expired := adminToken(t, testSecret, time.Now().Add(-time.Minute))
	assert.Equal(t, http.StatusUnauthorized, f.do("POST", "/api/v1/admin/mints", body, expired).Code)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ops"}).SignedString(testSecret)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, f.do("POST", "/api/v1/admin/mints", body, noExp).Code)

	rec := f.do("POST", "/api/v1/admin/mints", body, f.token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode(t, rec)["address"])
}

func TestAdminRoutesDisabled(t *testing.T) {
	f := newAPIFixture(t)
	config.AppConfig.EnableAdmin = false
	dm, err := db.OpenDatabaseManager(config.AppConfig)
	require.NoError(t, err)
	defer dm.Close()
	st := state.InitializeState(dm, program.NewProgram(testProgramID), ledger.NewSystemClock(), nil)
	f.router = NewHTTPServer(st, nil).Router()

	rec := f.do("POST", "/api/v1/admin/mints", CreateMintRequest{Authority: newKey(t)}, f.token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, f.do("GET", "/metrics", nil, "").Code)
}

func TestDeriveCoveredCall(t *testing.T) {
	f := newAPIFixture(t)
	terms := types.CoveredCallTerms{
		Seller: f.seller, Buyer: f.buyer, MintBase: f.mintBase, MintQuote: f.mintQuote,
		AmountBase: 100_000, AmountQuote: 50_000, TimestampExpiry: testNow + 86_400,
	}
	want, err := derive.CoveredCallAddresses(testProgramID, terms)
	require.NoError(t, err)

	q := url.Values{}
	q.Set("seller", f.seller.String())
	q.Set("buyer", f.buyer.String())
	q.Set("mint_base", f.mintBase.String())
	q.Set("mint_quote", f.mintQuote.String())
	q.Set("amount_base", "100000")
	q.Set("amount_quote", "50000")
	q.Set("timestamp_expiry", strconv.FormatInt(testNow+86_400, 10))

	rec := f.do("GET", "/api/v1/covered-calls/derive?"+q.Encode(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, want.Escrow.String(), body["escrow"])
	assert.Equal(t, want.Vault.String(), body["vault"])
	assert.Equal(t, float64(want.Bump), body["bump"])

	q.Set("buyer", "not-a-key")
	assert.Equal(t, http.StatusBadRequest, f.do("GET", "/api/v1/covered-calls/derive?"+q.Encode(), nil, "").Code)
	q.Del("buyer")
	assert.Equal(t, http.StatusBadRequest, f.do("GET", "/api/v1/covered-calls/derive?"+q.Encode(), nil, "").Code)
}

func TestInitializeCoveredCallFlow(t *testing.T) {
	f := newAPIFixture(t)
	f.seed(1_000_000)

	req := f.initializeRequest(100_000, testNow+86_400)
	rec := f.do("POST", "/api/v1/covered-calls", req, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	escrow := created["address"].(string)
	vault := created["vault"].(string)
	assert.Nil(t, created["amount_premium"])
	assert.Equal(t, false, created["is_exercised"])
	assert.Equal(t, float64(testNow), created["timestamp_created"])

	rec = f.do("GET", "/api/v1/covered-calls/"+escrow, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode(t, rec)
	assert.Equal(t, true, got["verified"])
	data, err := hexutil.Decode(got["data"].(string))
	require.NoError(t, err)
	assert.Len(t, data, types.CoveredCallSpace)
	assert.Equal(t, types.CoveredCallDiscriminator[:], data[:8])

	rec = f.do("GET", "/api/v1/token-accounts/"+vault, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	vaultBody := decode(t, rec)
	assert.Equal(t, float64(100_000), vaultBody["amount"])
	assert.Equal(t, "0.1", vaultBody["ui_amount"])
	assert.Equal(t, escrow, vaultBody["owner"])

	rec = f.do("GET", "/api/v1/token-accounts/"+f.funding.String(), nil, "")
	assert.Equal(t, "0.9", decode(t, rec)["ui_amount"])

	rec = f.do("GET", "/api/v1/token-accounts?owner="+escrow, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var owned []TokenAccountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &owned))
	require.Len(t, owned, 1)
	assert.Equal(t, vault, owned[0].Address)
	assert.Equal(t, "0.1", owned[0].UIAmount)

	rec = f.do("GET", "/api/v1/token-accounts?owner=0OIl", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// identical terms again
	rec = f.do("POST", "/api/v1/covered-calls", req, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "AlreadyExists", body["code"])
	assert.Equal(t, "escrow", body["field"])

	rec = f.do("GET", "/api/v1/covered-calls?seller="+f.seller.String(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)["covered_calls"].([]interface{})
	assert.Len(t, list, 1)

	rec = f.do("GET", "/metrics", nil, "")
	assert.Contains(t, rec.Body.String(), `covered_call_initialize_total{result="ok"} 1`)
	assert.Contains(t, rec.Body.String(), `covered_call_initialize_total{result="rejected"} 1`)
}

func TestInitializeCoveredCallRejections(t *testing.T) {
	f := newAPIFixture(t)
	f.seed(1_000_000)

	forged := f.initializeRequest(100_000, testNow+86_400)
	forged.AmountQuote = 1
	rec := f.do("POST", "/api/v1/covered-calls", forged, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Unauthorized", decode(t, rec)["code"])

	past := f.initializeRequest(100_000, testNow)
	rec = f.do("POST", "/api/v1/covered-calls", past, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ExpiryInThePast", decode(t, rec)["code"])

	tooMuch := f.initializeRequest(2_000_000, testNow+60)
	rec = f.do("POST", "/api/v1/covered-calls", tooMuch, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "InsufficientFunds", decode(t, rec)["code"])

	wrongEscrow := f.initializeRequest(100_000, testNow+60)
	other := newKey(t)
	wrongEscrow.Escrow = &other
	rec = f.do("POST", "/api/v1/covered-calls", wrongEscrow, "")
	// the signature no longer covers the supplied escrow
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do("POST", "/api/v1/covered-calls", map[string]string{"seller": "xyz"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do("GET", "/api/v1/covered-calls/"+newKey(t).String(), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do("GET", "/api/v1/covered-calls/0OIl", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUIAmount(t *testing.T) {
	assert.Equal(t, "1.5", uiAmount(1_500_000, 6))
	assert.Equal(t, "0", uiAmount(0, 9))
	assert.Equal(t, "18446744073709551615", uiAmount(^uint64(0), 0))
	assert.Equal(t, "0.000001", uiAmount(1, 6))
}
