package models

// Wire literals shared by the prompt and the response parser. The parser
// depends on the model echoing SourcesMarker exactly.
const (
	QuestionPrefix    = "QUESTION: "
	SectionDelimiter  = "=========\n"
	ContentPrefix     = "Content: "
	SourcePrefix      = "Source: "
	FinalAnswerMarker = "FINAL ANSWER:"
	SourcesMarker     = "SOURCES: "
	ExcerptSeparator  = "\n\n"
)

const (
	HyphenBreakRegex = `([\p{L}\p{N}_]+)-\n([\p{L}\p{N}_]+)`
	BlankRunRegex    = `\n\s*\n`
	LoneNewlineRegex = `(?<!\n)\n(?!\n)`
	XMLTagRegex      = `<[^>]*>`
)

var (
	// AnswerPromptTemplate takes the question and the rendered excerpts.
	AnswerPromptTemplate = answerPromptPreamble +
		QuestionPrefix + "%[1]s\n" +
		SectionDelimiter +
		"%[2]s\n" +
		SectionDelimiter +
		FinalAnswerMarker
)

const answerPromptPreamble = `Create a final answer to the given questions using the provided document excerpts (in no particular order) as references. ALWAYS include a "SOURCES" section in your answer including only the minimal set of sources needed to answer the question. If you are unable to answer the question, simply state that you do not know. Do not attempt to fabricate an answer and leave the SOURCES section empty. Always think things through step by step and come to the correct conclusion. Please put the source values (#-#) immediately after any text that utilizes the respective source.

The schema strictly follow the format below:

---------

QUESTION: {User's question text goes here}
=========
Content: {Relevant first piece of contextual information goes here - this is provided to aid in answering the question}
Source: {Source of the first piece of contextual information goes here --> Format is #-# i.e. 3-15 or 3-8}
Content: {Relevant next piece of contextual information goes here - this is provided to aid in answering the question}
Source: {Source of the next piece of contextual information goes here --> Format is #-# i.e. 1-21 or 4-9}

... more content and sources ...

=========
FINAL ANSWER: {The answer to the question. Any sources (content/source from above) used in this answer should be referenced in-line with the text by including the source value (#-#) immediately after the text that utilizes the content with the format 'sentence <sup><b>#-#</b></sub>}
SOURCES: {The minimal set of sources needed to answer the question. The format is the same as above: i.e. #-#}

---------

The following is an example of a valid question answer pair:

QUESTION: What  is the purpose of ARPA-H?
=========
Content: More support for patients and families. 

To get there, I call on Congress to fund ARPA-H, the Advanced Research Projects Agency for Health. 

It’s based on DARPA, the Defense Department project that led to the Internet, GPS, and so much more.  

ARPA-H will have a singular purpose: to drive breakthroughs in cancer, Alzheimer’s, diabetes, and more.
Source: 1-32
Content: While we’re at it, let’s make sure every American can get the health care they need. 

We’ve already made historic investments in health care. 

We’ve made it easier for Americans to get the care they need, when they need it. 

We’ve made it easier for Americans to get the treatments they need, when they need them. 

We’ve made it easier for Americans to get the medications they need, when they need them.
Source: 1-33
Content: The V.A. is pioneering new ways of linking toxic exposures to disease, already helping  veterans get the care they deserve. 

We need to extend that same care to all Americans. 

That’s why I’m calling on Congress to pass legislation that would establish a national registry of toxic exposures, and provide health care and financial assistance to those affected.
Source: 1-30
=========
FINAL ANSWER: The purpose of ARPA-H is to drive breakthroughs in cancer, Alzheimer’s, diabetes, 
and more <sup><b>1-32</b></sup>. ARPA-H will lower the barrier to entry for all Americans <sup><b>1-33</b></sup>.
SOURCES: 1-32, 1-33

---------

Now it's your turn. You're an expert so you will do a good job. Please follow the schema above and do not deviate.

---------

`
