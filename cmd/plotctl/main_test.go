package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plotthread.org/client/canonical"
	"plotthread.org/client/model"
	"plotthread.org/client/protocol"
)

const passphrase = "Xk#9v!qLz$2@mWp7^rTb"

var recipient = strings.Repeat("B", 43) + "="

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestUsage(t *testing.T) {
	code, _, errOut := runCLI(t, "")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "Usage:")

	code, _, _ = runCLI(t, "", "nope")
	assert.Equal(t, 2, code)

	code, out, _ := runCLI(t, "", "help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "bolt")
}

func TestNormalizeAndShorten(t *testing.T) {
	code, out, _ := runCLI(t, "", "normalize", "abc")
	require.Equal(t, 0, code)
	assert.Equal(t, "abc"+strings.Repeat("0", 40)+"=\n", out)

	code, out, _ = runCLI(t, "", "shorten", recipient)
	require.Equal(t, 0, code)
	assert.Equal(t, "BBBBB...BBB=\n", out)

	id := strings.Repeat("ab", 32)
	code, out, _ = runCLI(t, "", "shorten", "--hex", id)
	require.Equal(t, 0, code)
	assert.Equal(t, "abababab"[:5]+"..."+id[60:]+"\n", out)
}

func TestSignThenInspect(t *testing.T) {
	code, out, errOut := runCLI(t, passphrase+"\n", "sign", "--to", recipient, "--memo", "ref(00ff) thanks", "--tip-height", "2500")
	require.Equal(t, 0, code, errOut)

	var r model.Representation
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, uint64(3), *r.Series)
	id := canonical.IdentifierOf(r)

	path := filepath.Join(t.TempDir(), "rep.json")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o600))

	code, out, _ = runCLI(t, "", "rep", "id", path)
	require.Equal(t, 0, code)
	assert.Equal(t, id+"\n", out)

	code, out, _ = runCLI(t, "", "rep", "verify", path)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "ok "+id)
	assert.Contains(t, out, "references 00ff")

	code, out, _ = runCLI(t, "", "rep", "canonical", path)
	require.Equal(t, 0, code)
	assert.Equal(t, string(canonical.Encode(r)), out)

	code, out, _ = runCLI(t, "", "rep", "cid", id)
	require.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "b"), out)

	r.Memo = "tampered"
	b, err := json.Marshal(r)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	code, _, _ = runCLI(t, "", "rep", "verify", path)
	assert.Equal(t, 1, code)
}

func TestSignRequiresPassphrase(t *testing.T) {
	code, _, errOut := runCLI(t, "", "sign", "--to", recipient, "--memo", "m", "--tip-height", "1")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "passphrase")
}

func TestGraphDecode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.dot")
	require.NoError(t, os.WriteFile(path, []byte(`digraph { A [pubkey="a", ranking="0.9"]; B [pubkey="b", ranking="0.1"]; A -> B; }`), 0o600))

	code, out, _ := runCLI(t, "", "graph", "decode", "--threshold", "50", path)
	require.Equal(t, 0, code)
	var g model.Graph
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Links)
}

func TestKeyLifecycle(t *testing.T) {
	state := []string{"--store", "bolt", "--bolt-path", filepath.Join(t.TempDir(), "state.db")}

	code, _, _ := runCLI(t, "password\n", append([]string{"key", "import"}, state...)...)
	assert.Equal(t, 1, code)

	code, out, errOut := runCLI(t, passphrase+"\n", append([]string{"key", "import"}, state...)...)
	require.Equal(t, 0, code, errOut)
	pks := strings.Fields(out)
	require.Len(t, pks, 10)

	code, out, _ = runCLI(t, "", append([]string{"key", "select"}, append(state, pks[3])...)...)
	require.Equal(t, 0, code)
	assert.Equal(t, "selected key 3\n", out)

	code, out, _ = runCLI(t, "", append([]string{"key", "list"}, state...)...)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "* 3 "+pks[3])

	code, _, _ = runCLI(t, "", append([]string{"key", "delete"}, state...)...)
	require.Equal(t, 0, code)
	code, out, _ = runCLI(t, "", append([]string{"key", "list"}, state...)...)
	require.Equal(t, 0, code)
	assert.Empty(t, out)
}

func TestKeyStrength(t *testing.T) {
	code, out, _ := runCLI(t, passphrase+"\n", "key", "strength")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "score 4/4")

	code, _, _ = runCLI(t, "password\n", "key", "strength")
	assert.Equal(t, 1, code)
}

// fakeNode answers tip and profile requests and accepts every push. Profiles
// for unknown keys come back as errors without a public_key.
func fakeNode(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{Subprotocols: []string{protocol.DefaultSubprotocol}})
		if err != nil {
			return
		}
		for {
			var f protocol.Frame
			if err := wsjson.Read(ctx, conn, &f); err != nil {
				return
			}
			var reply protocol.Message
			switch f.Type {
			case protocol.TypeGetTipHeader:
				reply = protocol.Message{Type: protocol.TypeTipHeader, Body: model.PlotIDHeaderPair{Header: model.PlotHeader{Height: 10}}}
			case protocol.TypePushRepresentation:
				var body protocol.PushRepresentationRequest
				_ = json.Unmarshal(f.Body, &body)
				reply = protocol.Message{Type: protocol.TypePushRepresentationResult, Body: protocol.PushResultBody{
					RepresentationID: canonical.IdentifierOf(body.Representation),
				}}
			case protocol.TypeGetProfile:
				var body protocol.PublicKeyRequest
				_ = json.Unmarshal(f.Body, &body)
				if body.PublicKey == recipient {
					reply = protocol.Message{Type: protocol.TypeProfile, Body: model.Profile{PublicKey: recipient, Ranking: 0.25}}
				} else {
					reply = protocol.Message{Type: protocol.TypeProfile, Body: model.Profile{Error: "public key not found"}}
				}
			default:
				continue
			}
			if err := wsjson.Write(ctx, conn, reply); err != nil {
				return
			}
		}
	}))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return "ws://" + strings.TrimPrefix(srv.URL, "http://")
}

func TestPushAgainstNode(t *testing.T) {
	node := fakeNode(t)
	state := []string{"--store", "bolt", "--bolt-path", filepath.Join(t.TempDir(), "state.db"), "--node", node}

	code, _, errOut := runCLI(t, passphrase+"\n", append([]string{"key", "import"}, state...)...)
	require.Equal(t, 0, code, errOut)

	args := append([]string{"push"}, state...)
	args = append(args, "--to", recipient, "--memo", "good work", "--timeout", "10s")
	code, out, errOut := runCLI(t, passphrase+"\n", args...)
	require.Equal(t, 0, code, errOut)
	assert.True(t, strings.HasPrefix(out, "Representation: "), out)
	assert.True(t, strings.HasSuffix(out, " was executed\n"), out)
}

func TestProfile(t *testing.T) {
	node := fakeNode(t)
	state := []string{"--store", "memory", "--node", node, "--timeout", "10s"}

	code, out, errOut := runCLI(t, "", append([]string{"profile"}, append(state, recipient)...)...)
	require.Equal(t, 0, code, errOut)
	var p model.Profile
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, 0.25, p.Ranking)

	code, _, errOut = runCLI(t, "", append([]string{"profile"}, append(state, strings.Repeat("C", 43)+"=")...)...)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "profile: public key not found")
}
