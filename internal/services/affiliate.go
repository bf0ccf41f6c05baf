package services

import (
	"fmt"
	"net/url"
	"strings"

	"affilink/internal/models"
)

// cuelinksRedirectBase is the redirect-network wrapper used when no
// merchant-specific program matches.
const cuelinksRedirectBase = "https://linksredirect.com/"

// hostFamilies maps merchant host substrings to program types, in match
// order. First match wins; the families do not overlap.
var hostFamilies = []struct {
	marker      string
	programType models.ProgramType
}{
	{"amazon", models.ProgramAmazon},
	{"flipkart", models.ProgramFlipkart},
	{"myntra", models.ProgramMyntra},
	{"ajio", models.ProgramAjio},
	{"meesho", models.ProgramMeesho},
	{"nykaa", models.ProgramNykaa},
	{"tatacliq", models.ProgramTataCliq},
}

type ConversionStatus int

const (
	// ConversionUnchanged means no program matched (or the URL could not be
	// rewritten) and the original URL passes through untouched.
	ConversionUnchanged ConversionStatus = iota
	ConversionConverted
)

// ConversionResult is a tagged result: callers check Status instead of
// comparing the output URL against the input.
type ConversionResult struct {
	AffiliateURL string
	Program      *models.AffiliateProgram
	Status       ConversionStatus
}

func (r ConversionResult) Converted() bool {
	return r.Status == ConversionConverted
}

// ConvertURL turns a merchant product URL into a monetized affiliate URL
// using the caller's programs, already scoped to one owner. It never fails:
// malformed input or a missing program degrades to returning the URL
// unchanged, since this runs on interactive dashboard paths.
func ConvertURL(rawURL string, programs []models.AffiliateProgram) ConversionResult {
	unchanged := ConversionResult{AffiliateURL: rawURL, Status: ConversionUnchanged}

	lower := strings.ToLower(rawURL)
	for _, family := range hostFamilies {
		if !strings.Contains(lower, family.marker) {
			continue
		}
		if program := activeProgram(programs, family.programType); program != nil {
			return rewriteWithProgram(rawURL, program)
		}
		// Matched family, no program for it. Try the generic fallback.
		break
	}

	if fallback := cuelinksFallback(programs); fallback != nil {
		return ConversionResult{
			AffiliateURL: wrapCuelinks(rawURL, fallback),
			Program:      fallback,
			Status:       ConversionConverted,
		}
	}

	return unchanged
}

// rewriteWithProgram sets the program's tracking parameter to its affiliate
// id and re-serializes the URL.
func rewriteWithProgram(rawURL string, program *models.AffiliateProgram) ConversionResult {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ConversionResult{AffiliateURL: rawURL, Status: ConversionUnchanged}
	}

	param := program.TrackingParam
	if param == "" {
		param = models.DefaultTrackingParam
	}

	query := parsed.Query()
	query.Set(param, program.AffiliateID)
	parsed.RawQuery = query.Encode()

	return ConversionResult{
		AffiliateURL: parsed.String(),
		Program:      program,
		Status:       ConversionConverted,
	}
}

// wrapCuelinks builds the redirect-network wrapper URL. The destination is
// query-escaped exactly once.
func wrapCuelinks(rawURL string, program *models.AffiliateProgram) string {
	return fmt.Sprintf("%s?cid=%s&subid=%s&url=%s",
		cuelinksRedirectBase,
		url.QueryEscape(program.AffiliateID),
		url.QueryEscape(program.APIKey),
		url.QueryEscape(rawURL),
	)
}

// activeProgram picks the first active program of the given type. More than
// one active program per type is an input-data error; first wins.
func activeProgram(programs []models.AffiliateProgram, programType models.ProgramType) *models.AffiliateProgram {
	for i := range programs {
		if programs[i].IsActive && programs[i].ProgramType == programType {
			return &programs[i]
		}
	}
	return nil
}

// cuelinksFallback requires both an affiliate id (cid) and an api key
// (subid); a half-configured program is skipped.
func cuelinksFallback(programs []models.AffiliateProgram) *models.AffiliateProgram {
	for i := range programs {
		p := &programs[i]
		if p.IsActive && p.ProgramType == models.ProgramCuelinks && p.AffiliateID != "" && p.APIKey != "" {
			return p
		}
	}
	return nil
}
