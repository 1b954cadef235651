package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for pack documents.
// Titles and descriptions are stemmed, author names are not, and the id and
// kind are exact keywords.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	// Description is searchable but not stored
	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	mediaFieldMapping := bleve.NewTextFieldMapping()
	mediaFieldMapping.Analyzer = en.AnalyzerName
	mediaFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("media_titles", mediaFieldMapping)

	authorFieldMapping := bleve.NewTextFieldMapping()
	authorFieldMapping.Analyzer = simple.Name
	authorFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("author", authorFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	idFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	kindFieldMapping := bleve.NewTextFieldMapping()
	kindFieldMapping.Analyzer = keyword.Name
	kindFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("kind", kindFieldMapping)

	nsfwFieldMapping := bleve.NewBooleanFieldMapping()
	nsfwFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("nsfw", nsfwFieldMapping)

	mediaCountFieldMapping := bleve.NewNumericFieldMapping()
	mediaCountFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("media_count", mediaCountFieldMapping)

	characterCountFieldMapping := bleve.NewNumericFieldMapping()
	characterCountFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("character_count", characterCountFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
