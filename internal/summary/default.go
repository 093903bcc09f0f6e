package summary

// DefaultTemplate is the review summary layout. Placeholders are
// {{title}}, {{flow}}, {{meta}}, {{highlights}} and {{sections}}.
const DefaultTemplate = `# {{title}}
{{meta}}

{{highlights}}

{{sections}}`
