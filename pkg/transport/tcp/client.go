package tcp

import (
	"fmt"
	"io"
	"net"
	"time"
)

// Client talks to an echo server. It is used by the probe command and in tests.
type Client struct {
	conn    *net.TCPConn
	timeout time.Duration
}

// Dial connects to addr. A positive timeout bounds the dial and every later call.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("unable to establish connection with %s: %w", addr, err)
	}
	return &Client{conn: conn.(*net.TCPConn), timeout: timeout}, nil
}

// Echo sends payload, half-closes the write side and returns everything the
// server sends back before it closes the connection.
func (c *Client) Echo(payload []byte) ([]byte, error) {
	if err := c.arm(); err != nil {
		return nil, err
	}
	if _, err := c.conn.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to send: %w", err)
	}
	if err := c.conn.CloseWrite(); err != nil {
		return nil, fmt.Errorf("failed to close write side: %w", err)
	}
	reply, err := io.ReadAll(c.conn)
	if err != nil {
		return reply, fmt.Errorf("failed to read echo: %w", err)
	}
	return reply, nil
}

// RoundTrip sends payload and reads exactly len(payload) bytes back, leaving the
// connection open for further use.
func (c *Client) RoundTrip(payload []byte) ([]byte, error) {
	if err := c.arm(); err != nil {
		return nil, err
	}
	if _, err := c.conn.Write(payload); err != nil {
		return nil, fmt.Errorf("failed to send: %w", err)
	}
	reply := make([]byte, len(payload))
	if _, err := io.ReadFull(c.conn, reply); err != nil {
		return nil, fmt.Errorf("failed to read echo: %w", err)
	}
	return reply, nil
}

func (c *Client) Conn() *net.TCPConn {
	return c.conn
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) arm() error {
	if c.timeout <= 0 {
		return nil
	}
	return c.conn.SetDeadline(time.Now().Add(c.timeout))
}
