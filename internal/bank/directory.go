package bank

import "strings"

// DirectoryVersion identifies the static bank table revision in use.
const DirectoryVersion = "2024.11"

// Identity is a canonical bank identity from the static directory.
type Identity struct {
	Code        string `json:"bankCode"`
	DisplayName string `json:"bankName"`
}

// PrefixRule maps NUBAN leading digits to a bank. Prefixes are inferred from
// real-world account ranges and carry only moderate confidence.
type PrefixRule struct {
	Code     string
	Name     string
	Prefixes []string
	Lengths  []int
}

// Directory holds the versioned alias and prefix tables.
type Directory struct {
	aliases  map[string]Identity
	prefixes []PrefixRule
}

type tableEntry struct {
	name string
	code string
}

// Canonical institutions. Display names keep the register of the upstream
// provider list (full caps, "BANK"-suffixed for the main commercial entity).
var bankTable = []tableEntry{
	{"ACCESS BANK", "000014"},
	{"ACCESS MOBILE", "100013"},
	{"GTBANK", "000013"},
	{"FIRST BANK", "000016"},
	{"ZENITH BANK", "000015"},
	{"ECOBANK", "050"},
	{"ECOBANK MOBILE", "307"},
	{"UBA", "033"},
	{"FIDELITY BANK", "070"},
	{"FCMB", "214"},
	{"KEYSTONE BANK", "082"},
	{"POLARIS BANK", "076"},
	{"UNION BANK", "032"},
	{"STANBIC IBTC", "221"},
	{"STANBIC MOBILE", "304"},
	{"STERLING BANK", "232"},
	{"WEMA BANK", "035"},
	{"UNITY BANK", "215"},
	{"JAIZ BANK", "301"},
	{"GLOBUS BANK", "103"},
	{"PROVIDUS BANK", "101"},
	{"TITAN TRUST BANK", "102"},
	{"PREMIUM TRUST BANK", "105"},
	{"SIGNATURE BANK", "106"},
	{"CORONATION BANK", "100005"},
	{"OPAY", "999992"},
	{"PALMPAY", "100033"},
	{"KUDA BANK", "50211"},
	{"MONIEPOINT MFB", "50515"},
	{"PAGA", "100002"},
	{"CARBON", "565"},
	{"RUBIES BANK", "125"},
	{"VFD MICROFINANCE", "566"},
	{"HERITAGE BANK", "030"},
	{"SUNTRUST BANK", "100"},
	{"NOVA MERCHANT BANK", "999991"},
	{"CITI BANK", "023"},
	{"LOTUS BANK", "303"},
	{"TAJ BANK", "302"},
	{"ACCION MFB", "090134"},
	{"RENMONEY MFB", "090198"},
	{"MINT MFB", "50304"},
	{"INFINITY MFB", "50323"},
	{"HASAL MFB", "50383"},
	{"PEACE MFB", "999981"},
	{"SPARKLE MFB", "51310"},
	{"9PSB", "120001"},
	{"HOPE PSB", "120002"},
	{"MONEYMASTER PSB", "120003"},
	{"FLUTTERWAVE", "100031"},
	{"INTERSWITCH", "100004"},
	{"PAYSTACK", "100032"},
	{"ETRANZACT", "100003"},
}

// Slang and abbreviations users actually type, keyed to bank codes.
var extraAliases = map[string]string{
	"gtb":                    "000013",
	"gt bank":                "000013",
	"guaranty":               "000013",
	"guaranty trust":         "000013",
	"guaranty trust bank":    "000013",
	"accessbank":             "000014",
	"access corp":            "000014",
	"accesscorp":             "000014",
	"firstbank":              "000016",
	"fbn":                    "000016",
	"first bank nigeria":     "000016",
	"zenithbank":             "000015",
	"eco bank":               "050",
	"eco mobile":             "307",
	"united bank for africa": "033",
	"first city monument":    "214",
	"first city monument bank": "214",
	"unionbank":              "032",
	"stanbicibtc":            "221",
	"sterlingbank":           "232",
	"unitybank":              "215",
	"paycom":                 "999992",
	"opay digital":           "999992",
	"palm pay":               "100033",
	"monie point":            "50515",
	"paylater":               "565",
	"vbank":                  "566",
	"vfd":                    "566",
	"sun trust":              "100",
	"nova":                   "999991",
	"citibank":               "023",
	"nine psb":               "120001",
	"hope bank":              "120002",
	"money master":           "120003",
	"rave":                   "100031",
	"quickteller":            "100004",
	"pay stack":              "100032",
	"e-tranzact":             "100003",
	"mtn momo":               "305",
	"momo":                   "305",
}

var prefixRules = []PrefixRule{
	{Code: "000013", Name: "GTBANK", Prefixes: []string{"00", "01", "02"}, Lengths: []int{10}},
	{Code: "000014", Name: "ACCESS BANK", Prefixes: []string{"03", "05"}, Lengths: []int{10}},
	{Code: "000015", Name: "ZENITH BANK", Prefixes: []string{"20", "30"}, Lengths: []int{10}},
	{Code: "033", Name: "UBA", Prefixes: []string{"21", "22"}, Lengths: []int{10}},
	{Code: "070", Name: "FIDELITY BANK", Prefixes: []string{"40"}, Lengths: []int{10}},
	{Code: "076", Name: "POLARIS BANK", Prefixes: []string{"90", "91"}, Lengths: []int{10}},
	{Code: "214", Name: "FCMB", Prefixes: []string{"22", "23"}, Lengths: []int{10}},
	{Code: "035", Name: "WEMA BANK", Prefixes: []string{"80", "81"}, Lengths: []int{10}},
}

// NewDirectory builds the alias and prefix tables from the static bank data.
func NewDirectory() *Directory {
	d := &Directory{
		aliases:  make(map[string]Identity),
		prefixes: prefixRules,
	}

	byCode := make(map[string]Identity, len(bankTable))
	for _, e := range bankTable {
		identity := Identity{Code: e.code, DisplayName: e.name}
		byCode[e.code] = identity

		name := normalize(e.name)
		d.addAlias(name, identity)

		words := strings.Fields(name)
		if len(words) > 0 && len(words[0]) > 2 {
			d.addAlias(words[0], identity)
		}

		for _, suffix := range []string{" bank", " mfb", " mobile", " psb"} {
			if strings.Contains(name, suffix) {
				d.addAlias(strings.TrimSpace(strings.Replace(name, suffix, "", 1)), identity)
			}
		}
	}

	for alias, code := range extraAliases {
		identity, ok := byCode[code]
		if !ok {
			identity = Identity{Code: code, DisplayName: strings.ToUpper(alias)}
		}
		d.addAlias(normalize(alias), identity)
	}

	return d
}

// addAlias inserts an alias unless it is already claimed. A main
// "...BANK"-named institution may displace a channel or mobile variant that
// normalized to the same key; the reverse never happens, so Fidelity Mobile
// cannot shadow Fidelity Bank.
func (d *Directory) addAlias(alias string, identity Identity) {
	if alias == "" {
		return
	}

	existing, ok := d.aliases[alias]
	if !ok {
		d.aliases[alias] = identity
		return
	}

	if !isMainBankName(existing.DisplayName) && isMainBankName(identity.DisplayName) {
		d.aliases[alias] = identity
	}
}

// LookupAlias returns the identity an exact alias maps to.
func (d *Directory) LookupAlias(alias string) (Identity, bool) {
	identity, ok := d.aliases[normalize(alias)]
	return identity, ok
}

// MatchPrefix returns every bank whose NUBAN prefix rule covers the account
// number's length and leading digits.
func (d *Directory) MatchPrefix(accountNumber string) []Identity {
	var matches []Identity
	for _, rule := range d.prefixes {
		if !containsInt(rule.Lengths, len(accountNumber)) {
			continue
		}
		for _, prefix := range rule.Prefixes {
			if strings.HasPrefix(accountNumber, prefix) {
				matches = append(matches, Identity{Code: rule.Code, DisplayName: rule.Name})
				break
			}
		}
	}
	return matches
}

func isMainBankName(name string) bool {
	return strings.HasSuffix(name, "BANK")
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
