package e2e

import (
	"bytes"
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/internal"
	"chat-relay/protocol"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const readTimeout = 5 * time.Second

// BaseRelaySuite drives a running relay seeded with the demo accounts.
type BaseRelaySuite struct {
	suite.Suite
	Config   Config
	verifier *auth.Verifier
}

func (s *BaseRelaySuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.RelayAddr == "" || s.Config.JwtSecret == "" {
		s.T().Skip("RELAY_ADDR and JWT_SECRET are required for the e2e suite")
	}
	s.verifier = auth.NewVerifier(s.Config.JwtSecret, s.Config.JwtIssuer, time.Hour)
}

func (s *BaseRelaySuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

func (s *BaseRelaySuite) Account(name string) domain.Account {
	return internal.DemoAccount(name)
}

func (s *BaseRelaySuite) Authorization(name string) string {
	token, err := s.verifier.GenerateToken(s.Account(name).CredentialsID)
	s.Require().NoError(err)
	return "Bearer " + token
}

// Health asks the gRPC health service for the overall status.
func (s *BaseRelaySuite) Health() healthpb.HealthCheckResponse_ServingStatus {
	conn, err := grpc.NewClient(s.Config.GrpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	s.Require().NoError(err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()
	response, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	s.Require().NoError(err)
	return response.GetStatus()
}

// Client is one websocket connection of a demo account.
type Client struct {
	suite *BaseRelaySuite
	name  string
	conn  *websocket.Conn
}

// Connect dials the relay and authenticates as name. The CONNECTED and
// sync answers are consumed; the synced chats are returned.
func (s *BaseRelaySuite) Connect(name string) (*Client, []domain.ChatView) {
	endpoint := url.URL{Scheme: "ws", Host: s.Config.RelayAddr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(endpoint.String(), nil)
	s.Require().NoError(err)
	client := &Client{suite: s, name: name, conn: conn}
	s.T().Cleanup(func() { _ = conn.Close() })

	client.Send(event.NameConnect, protocol.ConnectRequest{Authorization: s.Authorization(name)})
	var connected event.Connected
	client.Expect(event.NameConnected, &connected)
	s.Require().Equal(s.Account(name).ID, connected.AccountID)

	var synced event.ChatsSynced
	client.Expect(event.NameChatsSynced, &synced)
	return client, synced.Chats
}

func (c *Client) Send(name event.Name, data any) {
	frame, err := protocol.NewFrame(name, data)
	c.suite.Require().NoError(err)
	c.debug(">>", frame)
	c.suite.Require().NoError(c.conn.WriteMessage(websocket.TextMessage, frame))
}

// Expect reads until an envelope named name arrives and decodes its details
// into out. Other events are skipped; an error envelope fails the test.
func (c *Client) Expect(name event.Name, out any) {
	for {
		envelope := c.next()
		if envelope.Name != name {
			continue
		}
		c.suite.Require().Equal(protocol.KindSuccess, envelope.Kind, "errors: %v", envelope.Errors)
		if out != nil {
			c.suite.Require().NoError(json.Unmarshal(envelope.Details, out))
		}
		return
	}
}

// ExpectError reads until an envelope named name arrives and returns its codes.
func (c *Client) ExpectError(name event.Name) []string {
	for {
		envelope := c.next()
		if envelope.Name != name {
			continue
		}
		c.suite.Require().Equal(protocol.KindError, envelope.Kind)
		codes := make([]string, 0, len(envelope.Errors))
		for _, code := range envelope.Errors {
			codes = append(codes, string(code))
		}
		return codes
	}
}

func (c *Client) next() protocol.Envelope {
	_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	_, data, err := c.conn.ReadMessage()
	c.suite.Require().NoError(err, "%s is still waiting", c.name)
	c.debug("<<", data)
	var envelope protocol.Envelope
	c.suite.Require().NoError(json.Unmarshal(data, &envelope))
	return envelope
}

func (c *Client) debug(direction string, frame []byte) {
	if c.suite.Config.DebugJSON {
		c.suite.T().Logf("%s %s %s", c.name, direction, frame)
	}
}

func (c *Client) Close() {
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.conn.Close()
}

// REST calls the authenticated API as name and returns the status and body.
func (s *BaseRelaySuite) REST(name, method, path string, body any) (int, []byte) {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)
	request, err := http.NewRequest(method, "http://"+s.Config.RelayAddr+"/api/v1"+path, bytes.NewReader(payload))
	s.Require().NoError(err)
	request.Header.Set("Authorization", s.Authorization(name))
	request.Header.Set("Content-Type", "application/json")

	response, err := http.DefaultClient.Do(request)
	s.Require().NoError(err)
	defer response.Body.Close()
	content, err := io.ReadAll(response.Body)
	s.Require().NoError(err)
	return response.StatusCode, content
}
