package models

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	dErrors "kyc-gateway/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// DocumentType enumerates the documents the extraction service accepts.
type DocumentType string

const (
	DocumentPassport                DocumentType = "passport"
	DocumentDriversLicense          DocumentType = "drivers_license"
	DocumentNationalID              DocumentType = "national_id"
	DocumentUtilityBill             DocumentType = "utility_bill"
	DocumentBankStatement           DocumentType = "bank_statement"
	DocumentBusinessLicense         DocumentType = "business_license"
	DocumentArticlesOfIncorporation DocumentType = "articles_of_incorporation"
	DocumentProofOfAddress          DocumentType = "proof_of_address"
	DocumentFinancialStatement      DocumentType = "financial_statement"
	DocumentTaxReturn               DocumentType = "tax_return"
)

func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentPassport, DocumentDriversLicense, DocumentNationalID,
		DocumentUtilityBill, DocumentBankStatement, DocumentBusinessLicense,
		DocumentArticlesOfIncorporation, DocumentProofOfAddress,
		DocumentFinancialStatement, DocumentTaxReturn:
		return true
	}
	return false
}

type SourceOfFunds string

const (
	FundsSalary      SourceOfFunds = "salary"
	FundsBusiness    SourceOfFunds = "business"
	FundsInvestment  SourceOfFunds = "investment"
	FundsInheritance SourceOfFunds = "inheritance"
	FundsOther       SourceOfFunds = "other"
)

func (s SourceOfFunds) IsValid() bool {
	switch s {
	case FundsSalary, FundsBusiness, FundsInvestment, FundsInheritance, FundsOther:
		return true
	}
	return false
}

type BusinessType string

const (
	BusinessCorporation        BusinessType = "corporation"
	BusinessLLC                BusinessType = "llc"
	BusinessPartnership        BusinessType = "partnership"
	BusinessSoleProprietorship BusinessType = "sole_proprietorship"
	BusinessNonprofit          BusinessType = "nonprofit"
	BusinessOther              BusinessType = "other"
)

func (b BusinessType) IsValid() bool {
	switch b {
	case BusinessCorporation, BusinessLLC, BusinessPartnership,
		BusinessSoleProprietorship, BusinessNonprofit, BusinessOther:
		return true
	}
	return false
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

func (a Address) validate(prefix string) error {
	fields := []struct{ name, value string }{
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"zipCode", a.ZipCode},
		{"country", a.Country},
	}
	for _, f := range fields {
		if err := required(prefix+"."+f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// PersonalInfo is the individual customer profile.
type PersonalInfo struct {
	FirstName     string        `json:"firstName"`
	LastName      string        `json:"lastName"`
	MiddleName    string        `json:"middleName,omitempty"`
	DateOfBirth   string        `json:"dateOfBirth"`
	Nationality   string        `json:"nationality"`
	PlaceOfBirth  string        `json:"placeOfBirth"`
	SSN           string        `json:"ssn,omitempty"`
	TaxID         string        `json:"taxId,omitempty"`
	Phone         string        `json:"phone"`
	Email         string        `json:"email"`
	Address       Address       `json:"address"`
	Occupation    string        `json:"occupation"`
	Employer      string        `json:"employer,omitempty"`
	AnnualIncome  *float64      `json:"annualIncome,omitempty"`
	SourceOfFunds SourceOfFunds `json:"sourceOfFunds"`
}

// Validate reports the first schema violation as a validation error naming the field.
func (p PersonalInfo) Validate() error {
	return p.validate("")
}

func (p PersonalInfo) validate(prefix string) error {
	fields := []struct{ name, value string }{
		{"firstName", p.FirstName},
		{"lastName", p.LastName},
		{"dateOfBirth", p.DateOfBirth},
		{"nationality", p.Nationality},
		{"placeOfBirth", p.PlaceOfBirth},
		{"phone", p.Phone},
		{"email", p.Email},
		{"occupation", p.Occupation},
	}
	for _, f := range fields {
		if err := required(prefix+f.name, f.value); err != nil {
			return err
		}
	}
	if _, err := time.Parse(dateLayout, p.DateOfBirth); err != nil {
		return invalidField(prefix+"dateOfBirth", "must be a YYYY-MM-DD date")
	}
	if !govalidator.StringLength(p.Email, "3", "255") || !govalidator.IsEmail(p.Email) {
		return invalidField(prefix+"email", "must be a valid email address")
	}
	if !p.SourceOfFunds.IsValid() {
		return invalidField(prefix+"sourceOfFunds", "must be one of salary, business, investment, inheritance, other")
	}
	if p.AnnualIncome != nil && *p.AnnualIncome < 0 {
		return invalidField(prefix+"annualIncome", "must not be negative")
	}
	return p.Address.validate(prefix + "address")
}

// BusinessInfo is the corporate customer profile.
type BusinessInfo struct {
	CompanyName        string         `json:"companyName"`
	RegistrationNumber string         `json:"registrationNumber"`
	IncorporationDate  string         `json:"incorporationDate"`
	BusinessType       BusinessType   `json:"businessType"`
	Industry           string         `json:"industry"`
	Address            Address        `json:"address"`
	Website            string         `json:"website,omitempty"`
	AnnualRevenue      *float64       `json:"annualRevenue,omitempty"`
	NumberOfEmployees  *int           `json:"numberOfEmployees,omitempty"`
	BeneficialOwners   []PersonalInfo `json:"beneficialOwners,omitempty"`
}

func (b BusinessInfo) Validate() error {
	fields := []struct{ name, value string }{
		{"companyName", b.CompanyName},
		{"registrationNumber", b.RegistrationNumber},
		{"incorporationDate", b.IncorporationDate},
		{"industry", b.Industry},
	}
	for _, f := range fields {
		if err := required(f.name, f.value); err != nil {
			return err
		}
	}
	if !b.BusinessType.IsValid() {
		return invalidField("businessType", "must be one of corporation, llc, partnership, sole_proprietorship, nonprofit, other")
	}
	if b.Website != "" && !govalidator.IsURL(b.Website) {
		return invalidField("website", "must be a valid URL")
	}
	if b.AnnualRevenue != nil && *b.AnnualRevenue < 0 {
		return invalidField("annualRevenue", "must not be negative")
	}
	if b.NumberOfEmployees != nil && *b.NumberOfEmployees < 0 {
		return invalidField("numberOfEmployees", "must not be negative")
	}
	if err := b.Address.validate("address"); err != nil {
		return err
	}
	for i, owner := range b.BeneficialOwners {
		if err := owner.validate(fmt.Sprintf("beneficialOwners[%d].", i)); err != nil {
			return err
		}
	}
	return nil
}

// IdentitySubject is the person whose identity is checked for a record.
// Business records use their first beneficial owner, falling back to a
// placeholder owner at the company address.
func (r *ComplianceRecord) IdentitySubject() PersonalInfo {
	if r.PersonalInfo != nil {
		return *r.PersonalInfo
	}
	subject := PersonalInfo{
		FirstName:   "Business",
		LastName:    "Owner",
		DateOfBirth: "1980-01-01",
		Nationality: "US",
	}
	if r.BusinessInfo == nil {
		return subject
	}
	subject.Address = r.BusinessInfo.Address
	if len(r.BusinessInfo.BeneficialOwners) > 0 {
		owner := r.BusinessInfo.BeneficialOwners[0]
		subject.FirstName = cmp.Or(owner.FirstName, subject.FirstName)
		subject.LastName = cmp.Or(owner.LastName, subject.LastName)
		subject.DateOfBirth = cmp.Or(owner.DateOfBirth, subject.DateOfBirth)
		subject.Nationality = cmp.Or(owner.Nationality, subject.Nationality)
		subject.PlaceOfBirth = owner.PlaceOfBirth
		subject.SSN = owner.SSN
	}
	return subject
}

// ExpectedVolume is the declared yearly volume used for transaction risk.
func (r *ComplianceRecord) ExpectedVolume() float64 {
	if r.PersonalInfo != nil && r.PersonalInfo.AnnualIncome != nil && *r.PersonalInfo.AnnualIncome > 0 {
		return *r.PersonalInfo.AnnualIncome
	}
	if r.BusinessInfo != nil && r.BusinessInfo.AnnualRevenue != nil && *r.BusinessInfo.AnnualRevenue > 0 {
		return *r.BusinessInfo.AnnualRevenue
	}
	return DefaultExpectedVolume
}

// DefaultExpectedVolume applies when the profile declares no income or revenue.
const DefaultExpectedVolume = 100000

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalidField(field, "is required")
	}
	return nil
}

func invalidField(field, reason string) error {
	return dErrors.New(dErrors.CodeValidation, field+" "+reason)
}
