package models

import "strings"

// stateCodes maps Indian state and union territory names to their
// two-digit GST state codes.
var stateCodes = map[string]string{
	"jammu and kashmir":                        "01",
	"himachal pradesh":                         "02",
	"punjab":                                   "03",
	"chandigarh":                               "04",
	"uttarakhand":                              "05",
	"haryana":                                  "06",
	"delhi":                                    "07",
	"rajasthan":                                "08",
	"uttar pradesh":                            "09",
	"bihar":                                    "10",
	"sikkim":                                   "11",
	"arunachal pradesh":                        "12",
	"nagaland":                                 "13",
	"manipur":                                  "14",
	"mizoram":                                  "15",
	"tripura":                                  "16",
	"meghalaya":                                "17",
	"assam":                                    "18",
	"west bengal":                              "19",
	"jharkhand":                                "20",
	"odisha":                                   "21",
	"chhattisgarh":                             "22",
	"madhya pradesh":                           "23",
	"gujarat":                                  "24",
	"dadra and nagar haveli and daman and diu": "26",
	"maharashtra":                              "27",
	"andhra pradesh":                           "37",
	"karnataka":                                "29",
	"goa":                                      "30",
	"lakshadweep":                              "31",
	"kerala":                                   "32",
	"tamil nadu":                               "33",
	"puducherry":                               "34",
	"andaman and nicobar islands":              "35",
	"telangana":                                "36",
	"ladakh":                                   "38",
}

// knownCodes is the reverse index used to validate incoming codes.
var knownCodes = func() map[string]bool {
	m := make(map[string]bool, len(stateCodes))
	for _, code := range stateCodes {
		m[code] = true
	}
	return m
}()

// StateCodeFor returns the GST state code for a state name. The lookup is
// case-insensitive and tolerates surrounding whitespace and ampersands.
func StateCodeFor(stateName string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(stateName))
	key = strings.ReplaceAll(key, "&", "and")
	key = strings.Join(strings.Fields(key), " ")
	code, ok := stateCodes[key]
	return code, ok
}

// IsKnownStateCode reports whether code is a recognized two-digit GST
// state code.
func IsKnownStateCode(code string) bool {
	return knownCodes[strings.TrimSpace(code)]
}
