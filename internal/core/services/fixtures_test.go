package services_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/SscSPs/securities_registry/internal/dto"
	"github.com/SscSPs/securities_registry/internal/repositories/memory"
	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2025, 6, 30, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// sequence returns a concurrency-safe ID generator: TX-0001, TX-0002, ...
func sequence(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s-%04d", prefix, n.Add(1))
	}
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func ptr(s string) *string { return &s }

const certificateBody = `<h1>{{entityName}}</h1>
<p>{{memberName}} holds {{quantity}} {{securityName}}</p>
<p>Certificate {{certificateNumber}} issued {{issueDate}}</p>`

func seededStore() *memory.Store {
	s := memory.NewStore()
	s.Put(memory.Seed{
		Entities: []domain.Entity{
			{ID: "ENT-1", Name: "Acme Holdings Pty Ltd", Type: "Company", RegistrationNumber: "123 456 789"},
			{ID: "ENT-2", Name: "Beta Trust", Type: "Trust"},
		},
		Members: []domain.Member{
			{ID: "M1", EntityID: "ENT-1", Type: domain.MemberIndividual, Status: domain.MemberActive, Name: "Jane Citizen"},
			{ID: "M2", EntityID: "ENT-1", Type: domain.MemberIndividual, Status: domain.MemberActive, Name: "John Smith"},
			{ID: "M3", EntityID: "ENT-1", Type: domain.MemberEntity, Status: domain.MemberInactive, Name: "Dormant Pty Ltd"},
			{ID: "B1", EntityID: "ENT-2", Type: domain.MemberIndividual, Status: domain.MemberActive, Name: "Beta Holder"},
		},
		SecurityClasses: []domain.SecurityClass{
			{ID: "ORD", EntityID: "ENT-1", Name: "Ordinary Shares", Symbol: "ORD", IsActive: true},
			{ID: "PREF", EntityID: "ENT-1", Name: "Preference Shares", Symbol: "PREF", IsActive: true, IsArchived: true},
			{ID: "UNITS", EntityID: "ENT-2", Name: "Units", IsActive: true},
		},
		Templates: []domain.CertificateTemplate{
			{ID: "TPL", EntityID: "ENT-1", Name: "Share certificate", Body: certificateBody, Version: 1},
		},
	})
	return s
}

func issueReq(to string, qty int64, settled *time.Time) dto.CreateTransactionRequest {
	return dto.CreateTransactionRequest{
		SecurityClassID: "ORD",
		Type:            string(domain.Issue),
		Quantity:        decimal.NewFromInt(qty),
		CurrencyCode:    "aud",
		ToMemberID:      ptr(to),
		SettlementDate:  settled,
	}
}

func transferReq(from, to string, qty int64, settled *time.Time) dto.CreateTransactionRequest {
	req := issueReq(to, qty, settled)
	req.Type = string(domain.Transfer)
	req.FromMemberID = ptr(from)
	return req
}

func redeemReq(from string, qty int64, settled *time.Time) dto.CreateTransactionRequest {
	req := issueReq("", qty, settled)
	req.Type = string(domain.Redemption)
	req.ToMemberID = nil
	req.FromMemberID = ptr(from)
	return req
}

// appendRaw bypasses every service check, as a faulty writer would.
func appendRaw(s *memory.Store, tx domain.Transaction) {
	if err := s.AppendTransaction(context.Background(), tx); err != nil {
		panic(err)
	}
}
