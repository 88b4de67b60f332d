package feed

import (
	"fmt"
	"time"

	"github.com/ashureev/sportsdesk/internal/domain"
)

// DefaultRoundup is shown until a roundup is fetched, and when fetching fails.
const DefaultRoundup = "This Hour's Sports Roundup will appear here once the news is loaded. If you see this for long, check the API key."

// MissingCredentialRoundup is shown when no credential was ever configured.
const MissingCredentialRoundup = "API Key missing. News summary unavailable."

// Article field placeholders.
const (
	UntitledArticle  = "Untitled Article"
	NoSummary        = "No summary available."
	UnknownSourceTag = "Unknown Source"
)

// PlaceholderArticleID identifies the single pseudo-article of the fallback feed.
const PlaceholderArticleID = "placeholder-1"

// DefaultArticles returns the fallback feed: one explanatory pseudo-article.
func DefaultArticles(now time.Time) []domain.Article {
	return []domain.Article{{
		ID:              PlaceholderArticleID,
		Title:           "News Feed Loading or API Key Issue",
		Summary:         "Hank, my dude, either the sports news is still cookin' or there's an issue with the API key. If this message stays, tell Chris to check the console. We need our Colts and Thunder fix, like, rn!",
		SourceName:      "Hank's Brain",
		Category:        domain.CategoryNational,
		PublicationDate: isoTime(now),
		TeamTags:        []domain.Team{domain.TeamColts, domain.TeamThunder},
		ArticleURL:      nil,
		RelatedSources:  []domain.ContentSource{{URI: "#", Title: "Debug Console"}},
	}}
}

// ArticleCount is how many articles the batch prompt asks for.
const ArticleCount = 30

// HourlySummaryPrompt asks for the roundup text.
const HourlySummaryPrompt = `You are Hank's Sports Assistant, a Gen Z sports fanatic OBSESSED with the Indianapolis Colts and Oklahoma City Thunder.
Generate a 1-2 paragraph, super witty, and engaging sports roundup for "This Hour's Sports Roundup".
Use Gen Z slang (e.g., "no cap", "fire", "bet", "slay", "low key", "high key").
Heavily bias towards Colts and Thunder news. Make them sound like legends.
If there's news about their rivals, throw some shade (e.g., "Patriots LMAO", "Lakers who?").
Keep it concise and punchy. This is for Hank, he's got a short attention span.
Example of tone: "Alright Hank, bet. So, this hour, the Colts are basically confirmed to be the GOATs, no cap. And OKC? They're straight fire, about to dominate. Other teams? Mid at best. LOL."
`

// NewsFetchPrompt asks for a JSON array of ArticleCount articles. The field
// names, the four category strings and the array-only reply shape are relied
// on by FetchArticles.
var NewsFetchPrompt = fmt.Sprintf(newsFetchTemplate, ArticleCount)

const newsFetchTemplate = `
Generate a JSON array of %d diverse sports news articles from the last 24 hours.
Each article object in the array must follow this exact structure:
{
  "title": "string", // Compelling headline
  "summary": "string", // 1-2 sentence AI-generated summary, witty and engaging for a Gen Z audience
  "sourceName": "string", // e.g., "ESPN", "The Athletic", "Local News Kokomo Chronicle"
  "category": "string", // Must be one of: "Peru, Indiana Sports", "Kokomo, Indiana Sports", "Indiana State Sports", "National Sports News"
  "publicationDate": "string", // ISO 8601 format (e.g., "YYYY-MM-DDTHH:mm:ssZ")
  "teamTags": ["string"], // Array. Include "Indianapolis Colts" or "Oklahoma City Thunder" if relevant. Prioritize these teams. Can be empty.
  "articleUrl": "string | null", // Direct URL to the full article if available, else null.
  "groundingLinks": [{ "uri": "string", "title": "string" }] // If articleUrl is null AND you used web search for this specific article, list 1-2 specific source links used for this article's info. Empty if articleUrl exists or no specific search for this item.
}

CRITICAL: Prioritize news about the Indianapolis Colts and Oklahoma City Thunder. Make their news sound epic.
Include a mix of local (Peru/Kokomo, IN), Indiana state, and national sports. Be creative with local team names if needed.
Ensure publication dates are recent and varied within the last 24 hours.
The output MUST be a valid JSON array of these objects. Do not include any text outside the JSON array.
`

func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
