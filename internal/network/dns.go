package network

import (
	"net"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/yc01-bridge/log2"
	"golang.org/x/net/dns/dnsmessage"
)

const (
	DefaultDNSListen = ":53"
	dnsTTL           = 60
	dnsPoll          = 5 * time.Millisecond
	// per ServeOnce, rest waits for next tick
	dnsMaxQueries = 32
)

// DNSResponder answers every A query with portal address,
// so any name a phone resolves leads to the node.
type DNSResponder struct {
	log    *log2.Log
	listen string
	answer [4]byte
	conn   net.PacketConn
	buf    [512]byte
}

var _ Captive = &DNSResponder{} // compile-time interface test

func NewDNSResponder(log *log2.Log, listen string, portal net.IP) (*DNSResponder, error) {
	ip4 := portal.To4()
	if ip4 == nil {
		return nil, errors.NotValidf("portal address=%s must be IPv4", portal)
	}
	if listen == "" {
		listen = DefaultDNSListen
	}
	self := &DNSResponder{log: log, listen: listen}
	copy(self.answer[:], ip4)
	return self, nil
}

func (self *DNSResponder) Start() error {
	if self.conn != nil {
		return nil
	}
	conn, err := net.ListenPacket("udp4", self.listen)
	if err != nil {
		return errors.Annotatef(err, "captive dns listen=%s", self.listen)
	}
	self.conn = conn
	self.log.Debugf("captive dns listen=%s", conn.LocalAddr())
	return nil
}

func (self *DNSResponder) Addr() net.Addr {
	if self.conn == nil {
		return nil
	}
	return self.conn.LocalAddr()
}

// ServeOnce answers queries already waiting in socket buffer.
func (self *DNSResponder) ServeOnce() {
	if self.conn == nil {
		return
	}
	for i := 0; i < dnsMaxQueries; i++ {
		if err := self.conn.SetReadDeadline(time.Now().Add(dnsPoll)); err != nil {
			self.log.Errorf("captive dns deadline err=%v", err)
			return
		}
		n, from, err := self.conn.ReadFrom(self.buf[:])
		if err != nil {
			if ne, ok := err.(net.Error); !ok || !ne.Timeout() {
				self.log.Errorf("captive dns read err=%v", err)
			}
			return
		}
		response, err := self.respond(self.buf[:n])
		if err != nil {
			self.log.Debugf("captive dns from=%s bad query err=%v", from, err)
			continue
		}
		if _, err = self.conn.WriteTo(response, from); err != nil {
			self.log.Errorf("captive dns reply to=%s err=%v", from, err)
		}
	}
}

func (self *DNSResponder) Close() error {
	if self.conn == nil {
		return nil
	}
	err := self.conn.Close()
	self.conn = nil
	return errors.Annotate(err, "captive dns close")
}

func (self *DNSResponder) respond(query []byte) ([]byte, error) {
	var p dnsmessage.Parser
	h, err := p.Start(query)
	if err != nil {
		return nil, errors.Annotate(err, "header")
	}
	if h.Response {
		return nil, errors.New("not a query")
	}
	q, err := p.Question()
	if err != nil {
		return nil, errors.Annotate(err, "question")
	}

	b := dnsmessage.NewBuilder(make([]byte, 0, 512), dnsmessage.Header{
		ID:                 h.ID,
		Response:           true,
		OpCode:             h.OpCode,
		Authoritative:      true,
		RecursionDesired:   h.RecursionDesired,
		RecursionAvailable: false,
		RCode:              dnsmessage.RCodeSuccess,
	})
	b.EnableCompression()
	if err = b.StartQuestions(); err != nil {
		return nil, err
	}
	if err = b.Question(q); err != nil {
		return nil, err
	}
	// other types get empty NoError answer
	if q.Type == dnsmessage.TypeA || q.Type == dnsmessage.TypeALL {
		if err = b.StartAnswers(); err != nil {
			return nil, err
		}
		rh := dnsmessage.ResourceHeader{Name: q.Name, Type: dnsmessage.TypeA, Class: dnsmessage.ClassINET, TTL: dnsTTL}
		if err = b.AResource(rh, dnsmessage.AResource{A: self.answer}); err != nil {
			return nil, err
		}
	}
	return b.Finish()
}
