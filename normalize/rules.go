package normalize

// Static name rules. Process-wide constants, loaded once; nothing in
// the pipeline mutates them.

// Street-type abbreviations expanded during normalization. Keys are
// matched against uppercased words.
var streetTypes = map[string]string{
	"JLN":    "Jalan",
	"JALAN":  "Jalan",
	"LRG":    "Lorong",
	"PSN":    "Persiaran",
	"PSRN":   "Persiaran",
	"LBH":    "Lebuh",
	"LBHR":   "Lebuhraya",
	"TMN":    "Taman",
	"KG":     "Kampung",
	"KPG":    "Kampung",
	"BKT":    "Bukit",
	"SG":     "Sungai",
	"PSR":    "Pasar",
	"SKSYEN": "Seksyen",
	"SEK":    "Seksyen",
	"APT":    "Apartment",
	"KOMP":   "Kompleks",
	"STN":    "Stesen",
	"PKL":    "Pekeliling",
}

// Acronyms preserved in full caps instead of being title-cased.
var uppercaseWords = map[string]bool{
	"KL":   true,
	"KLCC": true,
	"KLIA": true,
	"PJ":   true,
	"SJ":   true,
	"SS":   true,
	"USJ":  true,
	"LRT":  true,
	"MRT":  true,
	"KTM":  true,
	"BRT":  true,
	"ERL":  true,
	"UTC":  true,
	"IOI":  true,
	"OUG":  true,
	"DBKL": true,
	"PKNS": true,
	"AEON": true,
	"UM":   true,
	"UITM": true,
	"UKM":  true,
	"HUKM": true,
	"IJN":  true,
	"PWTC": true,
	"MRR2": true,
	"JPJ":  true,
	"KWSP": true,
	"TNB":  true,
	"PPR":  true,
	"SMK":  true,
	"SK":   true,
	"SJK":  true,
	"MBSA": true,
	"MBPJ": true,
	"OPP":  true,
	"TTDI": true,
	"UOA":  true,
}
