package network

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/yc01-bridge/log2"
	"golang.org/x/net/dns/dnsmessage"
)

func buildQuery(t testing.TB, id uint16, name string, qtype dnsmessage.Type) []byte {
	b := dnsmessage.NewBuilder(nil, dnsmessage.Header{ID: id, RecursionDesired: true})
	require.NoError(t, b.StartQuestions())
	require.NoError(t, b.Question(dnsmessage.Question{
		Name:  dnsmessage.MustNewName(name),
		Type:  qtype,
		Class: dnsmessage.ClassINET,
	}))
	msg, err := b.Finish()
	require.NoError(t, err)
	return msg
}

func TestDNSResponder(t *testing.T) {
	t.Parallel()

	d, err := NewDNSResponder(log2.NewTest(t, log2.LDebug), "127.0.0.1:0", net.ParseIP("10.42.0.1"))
	require.NoError(t, err)
	d.ServeOnce() // not started, noop
	require.NoError(t, d.Start())
	defer d.Close()

	client, err := net.Dial("udp4", d.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write(buildQuery(t, 0x1234, "connectivitycheck.gstatic.com.", dnsmessage.TypeA))
	require.NoError(t, err)
	_, err = client.Write(buildQuery(t, 0x4321, "example.org.", dnsmessage.TypeAAAA))
	require.NoError(t, err)
	_, err = client.Write([]byte{0xde, 0xad})
	require.NoError(t, err)
	// let kernel deliver datagrams
	time.Sleep(20 * time.Millisecond)
	d.ServeOnce()

	buf := make([]byte, 512)
	require.NoError(t, client.SetReadDeadline(time.Now().Add(time.Second)))
	n, err := client.Read(buf)
	require.NoError(t, err)
	var msg dnsmessage.Message
	require.NoError(t, msg.Unpack(buf[:n]))
	assert.Equal(t, uint16(0x1234), msg.Header.ID)
	assert.True(t, msg.Header.Response)
	assert.Equal(t, dnsmessage.RCodeSuccess, msg.Header.RCode)
	require.Len(t, msg.Answers, 1)
	a, ok := msg.Answers[0].Body.(*dnsmessage.AResource)
	require.True(t, ok)
	assert.Equal(t, [4]byte{10, 42, 0, 1}, a.A)
	assert.Equal(t, "connectivitycheck.gstatic.com.", msg.Answers[0].Header.Name.String())

	n, err = client.Read(buf)
	require.NoError(t, err)
	require.NoError(t, msg.Unpack(buf[:n]))
	assert.Equal(t, uint16(0x4321), msg.Header.ID)
	assert.Equal(t, dnsmessage.RCodeSuccess, msg.Header.RCode)
	assert.Empty(t, msg.Answers)

	require.NoError(t, d.Close())
	assert.NoError(t, d.Close())
}

func TestDNSResponderIPv6Rejected(t *testing.T) {
	t.Parallel()

	_, err := NewDNSResponder(nil, "", net.ParseIP("fd00::1"))
	assert.Error(t, err)
}
