package conn

import (
	"bufio"
	"context"
	"errors"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/cosmez/respfmt/internal/command"
	"github.com/cosmez/respfmt/internal/resp"
)

// setupMockConnection creates a Connection over net.Pipe for testing without a real Redis server.
func setupMockConnection() (*Connection, net.Conn) {
	clientConn, serverConn := net.Pipe()
	return newConnection(clientConn, "localhost:6379", nil), serverConn
}

// expectRequest reads one request from the server side and compares it.
func expectRequest(t *testing.T, serverConn net.Conn, want string) {
	t.Helper()
	buf := make([]byte, 4096)
	n, err := serverConn.Read(buf)
	if err != nil {
		t.Errorf("Server read failed: %v", err)
		return
	}
	if got := string(buf[:n]); got != want {
		t.Errorf("Expected request %q, got %q", want, got)
	}
}

func TestSendReceive(t *testing.T) {
	c, serverConn := setupMockConnection()
	defer c.Close()
	defer serverConn.Close()

	go func() {
		if err := c.Send(command.FormatStrings(nil, "PING")); err != nil {
			t.Errorf("Send failed: %v", err)
		}
	}()
	expectRequest(t, serverConn, "*1\r\n$4\r\nPING\r\n")

	go func() {
		if _, err := serverConn.Write([]byte("+PONG\r\n")); err != nil {
			t.Errorf("Server write failed: %v", err)
		}
	}()

	response, err := c.Receive(1 * time.Second)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	strResp, ok := response.(resp.RedisString)
	if !ok || strResp.Value != "PONG" {
		t.Errorf("Expected PONG, got %v", response)
	}
}

func TestReceiveTimeout(t *testing.T) {
	c, serverConn := setupMockConnection()
	defer c.Close()
	defer serverConn.Close()

	_, err := c.Receive(20 * time.Millisecond)
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Errorf("Expected net timeout, got %v", err)
	}
}

func TestDoArgs(t *testing.T) {
	c, serverConn := setupMockConnection()
	defer c.Close()
	defer serverConn.Close()

	go func() {
		expectRequest(t, serverConn, "*3\r\n$3\r\nSET\r\n$6\r\nmy key\r\n$17\r\nhello world\nline2\r\n")
		serverConn.Write([]byte("+OK\r\n"))
	}()

	response, err := c.DoArgs(time.Second, "SET", "my key", "hello world\nline2")
	if err != nil {
		t.Fatalf("DoArgs failed: %v", err)
	}
	if response.StringValue() != "OK" {
		t.Errorf("Expected OK, got %v", response)
	}
}

func TestDo(t *testing.T) {
	c, serverConn := setupMockConnection()
	defer c.Close()
	defer serverConn.Close()

	go func() {
		expectRequest(t, serverConn, "*4\r\n$6\r\nEXPIRE\r\n$3\r\nk\x00y\r\n$2\r\n30\r\n$2\r\nNX\r\n")
		serverConn.Write([]byte(":1\r\n"))
	}()

	response, err := c.Do(time.Second, "EXPIRE %b %d NX", []byte("k\x00y"), 30)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if n, ok := response.(resp.RedisInteger); !ok || n.IntValue != 1 {
		t.Errorf("Expected :1, got %v", response)
	}
}

func TestDoInvalidTemplate(t *testing.T) {
	c, serverConn := setupMockConnection()
	defer c.Close()
	defer serverConn.Close()

	// Nothing is written, so the pipe would block if Do tried to send.
	if _, err := c.Do(time.Second, "GET %q", "k"); err == nil {
		t.Fatal("Expected error for invalid directive")
	}
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		want    string
		reply   string
		wantErr bool
	}{
		{"Legacy", "", "*2\r\n$4\r\nAUTH\r\n$6\r\nsecret\r\n", "+OK\r\n", false},
		{"ACL", "app", "*3\r\n$4\r\nAUTH\r\n$3\r\napp\r\n$6\r\nsecret\r\n", "+OK\r\n", false},
		{"Rejected", "", "*2\r\n$4\r\nAUTH\r\n$6\r\nsecret\r\n", "-WRONGPASS invalid password\r\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, serverConn := setupMockConnection()
			defer c.Close()
			defer serverConn.Close()

			go func() {
				expectRequest(t, serverConn, tt.want)
				serverConn.Write([]byte(tt.reply))
			}()

			err := c.auth(tt.user, "secret")
			if (err != nil) != tt.wantErr {
				t.Errorf("auth() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetServerInfo(t *testing.T) {
	c, serverConn := setupMockConnection()
	defer c.Close()
	defer serverConn.Close()

	go func() {
		expectRequest(t, serverConn, "*1\r\n$4\r\nINFO\r\n")
		infoResp := "$43\r\n# Server\r\nredis_version:7.0.0\r\nos:Linux\r\n\r\n\r\n"
		serverConn.Write([]byte(infoResp))
	}()

	if err := c.getServerInfo(); err != nil {
		t.Fatalf("getServerInfo failed: %v", err)
	}
	if c.ServerInfo["redis_version"] != "7.0.0" {
		t.Errorf("Expected redis_version 7.0.0, got %v", c.ServerInfo["redis_version"])
	}
	if c.ServerInfo["os"] != "Linux" {
		t.Errorf("Expected os Linux, got %v", c.ServerInfo["os"])
	}
}

func TestSafeKeys(t *testing.T) {
	c, serverConn := setupMockConnection()
	defer c.Close()
	defer serverConn.Close()

	go func() {
		expectRequest(t, serverConn, "*6\r\n$4\r\nSCAN\r\n$1\r\n0\r\n$5\r\nMATCH\r\n$5\r\nuser*\r\n$5\r\nCOUNT\r\n$3\r\n100\r\n")
		serverConn.Write([]byte("*2\r\n$2\r\n10\r\n*2\r\n$4\r\nkey1\r\n$4\r\nkey2\r\n"))

		expectRequest(t, serverConn, "*6\r\n$4\r\nSCAN\r\n$2\r\n10\r\n$5\r\nMATCH\r\n$5\r\nuser*\r\n$5\r\nCOUNT\r\n$3\r\n100\r\n")
		serverConn.Write([]byte("*2\r\n$1\r\n0\r\n*1\r\n$4\r\nkey3\r\n"))
	}()

	var keys []string
	for val := range c.SafeKeys("user*") {
		if errResp, ok := val.(resp.RedisError); ok {
			t.Fatalf("Iterator returned error: %v", errResp.Value)
		}
		keys = append(keys, val.StringValue())
	}

	expected := []string{"key1", "key2", "key3"}
	if !reflect.DeepEqual(keys, expected) {
		t.Errorf("Expected keys %v, got %v", expected, keys)
	}
}

func TestSafeHashPairs(t *testing.T) {
	c, serverConn := setupMockConnection()
	defer c.Close()
	defer serverConn.Close()

	go func() {
		expectRequest(t, serverConn, "*5\r\n$5\r\nHSCAN\r\n$6\r\nmy key\r\n$1\r\n0\r\n$5\r\nCOUNT\r\n$3\r\n100\r\n")
		serverConn.Write([]byte("*2\r\n$1\r\n0\r\n*4\r\n$2\r\nf1\r\n$2\r\nv1\r\n$2\r\nf2\r\n$2\r\nv2\r\n"))
	}()

	var got [][]string
	for val := range c.SafeHash("my key") {
		pair, ok := val.(resp.RedisArray)
		if !ok || len(pair.Values) != 2 {
			t.Fatalf("Expected pair, got %v", val)
		}
		got = append(got, []string{pair.Values[0].StringValue(), pair.Values[1].StringValue()})
	}

	expected := [][]string{{"f1", "v1"}, {"f2", "v2"}}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestSafeListPaging(t *testing.T) {
	c, serverConn := setupMockConnection()
	defer c.Close()
	defer serverConn.Close()

	go func() {
		expectRequest(t, serverConn, "*4\r\n$6\r\nLRANGE\r\n$1\r\nl\r\n$1\r\n0\r\n$2\r\n99\r\n")
		serverConn.Write([]byte("*2\r\n$1\r\na\r\n$1\r\nb\r\n"))

		expectRequest(t, serverConn, "*4\r\n$6\r\nLRANGE\r\n$1\r\nl\r\n$3\r\n100\r\n$3\r\n199\r\n")
		serverConn.Write([]byte("*0\r\n"))
	}()

	var items []string
	for val := range c.SafeList("l") {
		items = append(items, val.StringValue())
	}
	if !reflect.DeepEqual(items, []string{"a", "b"}) {
		t.Errorf("Expected [a b], got %v", items)
	}
}

func TestSafeSetsError(t *testing.T) {
	c, serverConn := setupMockConnection()
	defer c.Close()
	defer serverConn.Close()

	go func() {
		expectRequest(t, serverConn, "*5\r\n$5\r\nSSCAN\r\n$1\r\ns\r\n$1\r\n0\r\n$5\r\nCOUNT\r\n$3\r\n100\r\n")
		serverConn.Write([]byte("-WRONGTYPE Operation against a key holding the wrong kind of value\r\n"))
	}()

	var vals []resp.RedisValue
	for val := range c.SafeSets("s") {
		vals = append(vals, val)
	}
	if len(vals) != 1 {
		t.Fatalf("Expected one error value, got %v", vals)
	}
	if _, ok := vals[0].(resp.RedisError); !ok {
		t.Errorf("Expected RedisError, got %T", vals[0])
	}
}

func TestSafeSortedSetsCursor(t *testing.T) {
	c, serverConn := setupMockConnection()
	defer c.Close()
	defer serverConn.Close()

	go func() {
		expectRequest(t, serverConn, "*5\r\n$5\r\nZSCAN\r\n$1\r\nz\r\n$1\r\n0\r\n$5\r\nCOUNT\r\n$3\r\n100\r\n")
		serverConn.Write([]byte("*2\r\n$1\r\n7\r\n*2\r\n$1\r\na\r\n$1\r\n1\r\n"))

		expectRequest(t, serverConn, "*5\r\n$5\r\nZSCAN\r\n$1\r\nz\r\n$1\r\n7\r\n$5\r\nCOUNT\r\n$3\r\n100\r\n")
		serverConn.Write([]byte("*2\r\n$1\r\n0\r\n*2\r\n$1\r\nb\r\n$1\r\n2\r\n"))
	}()

	var items []string
	for val := range c.SafeSortedSets("z") {
		items = append(items, val.StringValue())
	}
	if !reflect.DeepEqual(items, []string{"a", "1", "b", "2"}) {
		t.Errorf("Expected [a 1 b 2], got %v", items)
	}
}

func TestSafeStreamExclusiveCursor(t *testing.T) {
	c, serverConn := setupMockConnection()
	defer c.Close()
	defer serverConn.Close()

	go func() {
		expectRequest(t, serverConn, "*6\r\n$6\r\nXRANGE\r\n$2\r\nst\r\n$1\r\n-\r\n$1\r\n+\r\n$5\r\nCOUNT\r\n$3\r\n100\r\n")
		serverConn.Write([]byte("*1\r\n*2\r\n$3\r\n1-0\r\n*2\r\n$1\r\nf\r\n$1\r\nv\r\n"))

		expectRequest(t, serverConn, "*6\r\n$6\r\nXRANGE\r\n$2\r\nst\r\n$4\r\n(1-0\r\n$1\r\n+\r\n$5\r\nCOUNT\r\n$3\r\n100\r\n")
		serverConn.Write([]byte("*0\r\n"))
	}()

	var ids []string
	for val := range c.SafeStream("st") {
		entry, ok := val.(resp.RedisArray)
		if !ok || len(entry.Values) != 2 {
			t.Fatalf("Expected stream entry, got %v", val)
		}
		ids = append(ids, entry.Values[0].StringValue())
	}
	if !reflect.DeepEqual(ids, []string{"1-0"}) {
		t.Errorf("Expected [1-0], got %v", ids)
	}
}

func TestSubscribe(t *testing.T) {
	c, serverConn := setupMockConnection()
	defer c.Close()
	defer serverConn.Close()

	go func() {
		serverConn.Write([]byte("*3\r\n$7\r\nmessage\r\n$2\r\nch\r\n$2\r\nhi\r\n"))
	}()

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	var got resp.RedisValue
	for msg := range c.Subscribe(ctx) {
		got = msg
		break
	}
	arr, ok := got.(resp.RedisArray)
	if !ok || len(arr.Values) != 3 || arr.Values[2].StringValue() != "hi" {
		t.Errorf("Expected message array, got %v", got)
	}
}

func TestSubscribeStopsOnCancel(t *testing.T) {
	c, serverConn := setupMockConnection()
	defer c.Close()
	defer serverConn.Close()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	for msg := range c.Subscribe(ctx) {
		t.Errorf("Unexpected message %v", msg)
	}
}

func TestGetKeyValue_String(t *testing.T) {
	c, serverConn := setupMockConnection()
	defer c.Close()
	defer serverConn.Close()

	go func() {
		expectRequest(t, serverConn, "*2\r\n$4\r\nTYPE\r\n$5\r\nmykey\r\n")
		serverConn.Write([]byte("+string\r\n"))

		expectRequest(t, serverConn, "*2\r\n$3\r\nGET\r\n$5\r\nmykey\r\n")
		serverConn.Write([]byte("$5\r\nvalue\r\n"))
	}()

	typeName, single, collection, err := c.GetKeyValue("mykey")
	if err != nil {
		t.Fatalf("GetKeyValue failed: %v", err)
	}
	if typeName != "string" {
		t.Errorf("Expected type string, got %v", typeName)
	}
	if single.StringValue() != "value" {
		t.Errorf("Expected single value 'value', got %v", single.StringValue())
	}
	if collection != nil {
		t.Error("Expected nil collection for string type")
	}
}

func TestGetKeyValue_Missing(t *testing.T) {
	c, serverConn := setupMockConnection()
	defer c.Close()
	defer serverConn.Close()

	go func() {
		expectRequest(t, serverConn, "*2\r\n$4\r\nTYPE\r\n$4\r\ngone\r\n")
		serverConn.Write([]byte("+none\r\n"))
	}()

	if _, _, _, err := c.GetKeyValue("gone"); err != ErrNoSuchKey {
		t.Errorf("Expected ErrNoSuchKey, got %v", err)
	}
}

func TestParseCommandEntry(t *testing.T) {
	bulk := func(s string) resp.RedisValue { return resp.RedisBulkString{Value: s, Length: len(s)} }
	num := func(n int64) resp.RedisValue { return resp.RedisInteger{IntValue: n} }

	entry := resp.RedisArray{Values: []resp.RedisValue{
		bulk("mset"), num(-3), resp.RedisArray{}, num(1), num(-1), num(2),
		resp.RedisArray{Values: []resp.RedisValue{bulk("@write"), bulk("@string")}},
		resp.RedisArray{}, resp.RedisArray{},
		resp.RedisArray{Values: []resp.RedisValue{
			resp.RedisArray{Values: []resp.RedisValue{bulk("mset|sub"), num(2)}},
		}},
	}}

	sc, err := parseCommandEntry(entry)
	if err != nil {
		t.Fatalf("parseCommandEntry failed: %v", err)
	}
	if sc.Name != "MSET" || sc.Arity != -3 {
		t.Errorf("Unexpected name/arity: %q %d", sc.Name, sc.Arity)
	}
	if sc.FirstKey != 1 || sc.LastKey != -1 || sc.Step != 2 {
		t.Errorf("Unexpected key spec: %d %d %d", sc.FirstKey, sc.LastKey, sc.Step)
	}
	if !reflect.DeepEqual(sc.ACLCats, []string{"@write", "@string"}) {
		t.Errorf("Unexpected ACL categories: %v", sc.ACLCats)
	}
	if len(sc.Subcommands) != 1 || sc.Subcommands[0].Name != "MSET SUB" {
		t.Errorf("Unexpected subcommands: %+v", sc.Subcommands)
	}

	if _, err := parseCommandEntry(bulk("nope")); err == nil {
		t.Error("Expected error for non-array entry")
	}
}

func TestConnect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	defer ln.Close()

	go func() {
		sc, err := ln.Accept()
		if err != nil {
			return
		}
		defer sc.Close()
		r := bufio.NewReader(sc)
		if args, err := resp.ReadCommand(r); err != nil || string(args[0]) != "INFO" {
			return
		}
		sc.Write([]byte("$17\r\nredis_version:7.2\r\n"))
	}()

	c, err := Connect(t.Context(), ln.Addr().String(), "", "", nil)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()

	if c.ServerInfo["redis_version"] != "7.2" {
		t.Errorf("Expected redis_version 7.2, got %v", c.ServerInfo)
	}
}
